package si7021

import (
	"context"
	"fmt"
	"time"
)

var ErrBusBusy = fmt.Errorf("two-wire engine is busy (command not completed)")

// CommandWriter covers the write half of a two-wire transaction: bytes queued
// between BeginTransmission and EndTransmission go out as a single bus write.
type CommandWriter interface {
	BeginTransmission(ctx context.Context, address byte) error
	Write(ctx context.Context, data ...byte) error
	EndTransmission(ctx context.Context) error
}

// ResponseReader covers the read half of a two-wire transaction. RequestFrom
// asks the device for count bytes; Available reports how many of them can be
// consumed right away without blocking; ReadByte consumes one.
type ResponseReader interface {
	RequestFrom(ctx context.Context, address byte, count int) error
	Available(ctx context.Context) int
	ReadByte(ctx context.Context) (byte, error)
}

// Transport is the two-wire serial master the driver talks through. The
// driver holds no lock around it; a transport shared between goroutines has
// to serialize transactions itself.
type Transport interface {
	CommandWriter
	ResponseReader
	// Init brings up the underlying bus master.
	Init(ctx context.Context) error
	// Delay pauses the calling goroutine, coarse millisecond granularity.
	Delay(d time.Duration)
	// Release frees the bus between transactions where the master requires it.
	Release(ctx context.Context) error
}
