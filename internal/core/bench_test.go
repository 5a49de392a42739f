package core

import (
	"strings"
	"testing"

	"github.com/vovakirdan/wirechat-client/internal/proto"
)

func benchmarkInboundChat(b *testing.B, payload int) {
	h := newHarness(b)
	c := h.joined(b)

	data, err := proto.Encode(proto.NewChat("bob", strings.Repeat("x", payload)))
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 1; i <= b.N; i++ {
		c.hooks.OnMessage(data)
		if i%1024 == 0 {
			// keep the log from growing without bound
			b.StopTimer()
			if err := h.session.Leave(h.ctx); err != nil {
				b.Fatal(err)
			}
			c = h.joined(b)
			b.StartTimer()
		}
	}
	h.state(b)
}

func BenchmarkInboundChat_16(b *testing.B)   { benchmarkInboundChat(b, 16) }
func BenchmarkInboundChat_256(b *testing.B)  { benchmarkInboundChat(b, 256) }
func BenchmarkInboundChat_4096(b *testing.B) { benchmarkInboundChat(b, 4096) }
