package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewView(t *testing.T) {
	tests := []struct {
		name     string
		size     int
		width    int
		height   int
		channels int
		stride   int
		wantErr  bool
	}{
		{name: "packed", size: 2 * 3 * 3, width: 2, height: 3, channels: 3, stride: 6},
		{name: "padded rows", size: 8*2 + 6, width: 2, height: 3, channels: 3, stride: 8},
		{name: "zero width", size: 12, width: 0, height: 3, channels: 3, stride: 6, wantErr: true},
		{name: "no channels", size: 12, width: 2, height: 3, channels: 0, stride: 6, wantErr: true},
		{name: "stride too small", size: 18, width: 2, height: 3, channels: 3, stride: 5, wantErr: true},
		{name: "short buffer", size: 17, width: 2, height: 3, channels: 3, stride: 6, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NewView(make([]byte, tt.size), tt.width, tt.height, tt.channels, tt.stride)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, v)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.width, v.Width)
			assert.Equal(t, tt.stride, v.Stride)
		})
	}
}

func TestViewAliasesCallerMemory(t *testing.T) {
	pix := make([]byte, 12)
	v, err := NewView(pix, 2, 2, 3, 6)
	require.NoError(t, err)

	v.Row(1)[0] = 42
	assert.Equal(t, byte(42), pix[6])
}

func TestCloneDropsStridePadding(t *testing.T) {
	pix := []byte{
		1, 2, 3, 4, 5, 6, 0xEE, 0xEE,
		7, 8, 9, 10, 11, 12,
	}
	v, err := NewView(pix, 2, 2, 3, 8)
	require.NoError(t, err)
	assert.False(t, v.Packed())

	c := v.Clone()
	assert.True(t, c.Packed())
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, c.Pix)
	assert.Equal(t, c.Pix, v.Bytes())

	c.Pix[0] = 99
	assert.Equal(t, byte(1), pix[0])
}

func TestCopyFromRespectsStride(t *testing.T) {
	pix := make([]byte, 8+6)
	for i := range pix {
		pix[i] = 0xEE
	}
	dst, err := NewView(pix, 2, 2, 3, 8)
	require.NoError(t, err)

	src := New(2, 2, 3)
	src.Fill(1, 2, 3)
	dst.CopyFrom(src)

	assert.Equal(t, []byte{1, 2, 3, 1, 2, 3, 0xEE, 0xEE, 1, 2, 3, 1, 2, 3}, pix)
}

func TestSameShape(t *testing.T) {
	a := New(4, 3, 3)
	assert.True(t, a.SameShape(New(4, 3, 3)))
	assert.False(t, a.SameShape(New(3, 4, 3)))
	assert.False(t, a.SameShape(New(4, 3, 1)))
	assert.Equal(t, "4x3x3", a.String())
}

func TestValidateHandBuiltViews(t *testing.T) {
	tests := []struct {
		name    string
		view    View
		wantErr bool
	}{
		{name: "packed", view: View{Width: 2, Height: 2, Channels: 3, Stride: 6, Pix: make([]byte, 12)}},
		{name: "short buffer", view: View{Width: 4, Height: 4, Channels: 3, Stride: 12, Pix: make([]byte, 20)}, wantErr: true},
		{name: "short stride", view: View{Width: 4, Height: 4, Channels: 3, Stride: 6, Pix: make([]byte, 48)}, wantErr: true},
		{name: "empty", view: View{Channels: 3}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.view.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNewPanicsOnEmptySize(t *testing.T) {
	assert.Panics(t, func() { New(0, 0, 3) })
	assert.Panics(t, func() { New(2, -1, 3) })
	assert.NotPanics(t, func() { New(1, 1, 1) })
}
