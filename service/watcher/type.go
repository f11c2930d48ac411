package watcher

// IService reports changes of a watched file on its subscription channel.
type IService interface {
	Subscribe() (<-chan string, error)
	Unsubscribe() error
	Finalize()
}
