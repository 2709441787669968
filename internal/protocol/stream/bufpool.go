package stream

import (
	"bytes"
	"sync"
)

// BufPool recycles batch buffers between encoders.
type BufPool struct {
	p sync.Pool
}

func NewBufPool() *BufPool {
	return &BufPool{
		p: sync.Pool{
			New: func() any {
				return new(bytes.Buffer)
			},
		},
	}
}

func (p *BufPool) Get() *bytes.Buffer {
	return p.p.Get().(*bytes.Buffer)
}

func (p *BufPool) Put(b *bytes.Buffer) {
	b.Reset()
	p.p.Put(b)
}

var batchBuffers = NewBufPool()
