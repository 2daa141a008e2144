package printer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"wildcafe-pos/internal/logger"
	"wildcafe-pos/internal/receipt"
)

type MockRasterizer struct {
	mock.Mock
}

func (m *MockRasterizer) Rasterize(ctx context.Context, doc receipt.Document) ([]byte, error) {
	args := m.Called(ctx, doc)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

type MockSpooler struct {
	mock.Mock
}

func (m *MockSpooler) Spool(ctx context.Context, destination, title string, data []byte) error {
	args := m.Called(ctx, destination, title, data)
	return args.Error(0)
}

type funcRasterizer func(ctx context.Context, doc receipt.Document) ([]byte, error)

func (f funcRasterizer) Rasterize(ctx context.Context, doc receipt.Document) ([]byte, error) {
	return f(ctx, doc)
}

var kitchenDoc = receipt.Document{Kind: receipt.KindKitchen, Title: "Kitchen #1", HTML: "<p>x</p>", WidthMM: 58}

func TestPrintNotConfigured(t *testing.T) {
	for _, dest := range []string{"", "  ", "none", "NONE", " None "} {
		r := new(MockRasterizer)
		s := new(MockSpooler)
		d := NewDispatcher(r, s, time.Second, logger.New(nil))

		out := d.Print(context.Background(), dest, kitchenDoc)

		assert.Equal(t, StatusNotConfigured, out.Status, "destination %q", dest)
		assert.Equal(t, "Printer not configured.", out.Message)
		r.AssertNotCalled(t, "Rasterize", mock.Anything, mock.Anything)
		s.AssertNotCalled(t, "Spool", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	}
}

func TestPrintSuccess(t *testing.T) {
	r := new(MockRasterizer)
	s := new(MockSpooler)
	pdf := []byte("%PDF-1.4")
	r.On("Rasterize", mock.Anything, kitchenDoc).Return(pdf, nil).Once()
	s.On("Spool", mock.Anything, "EPSON_TM", mock.MatchedBy(func(title string) bool {
		return len(title) > len("Kitchen #1 ")
	}), pdf).Return(nil).Once()

	d := NewDispatcher(r, s, time.Second, logger.New(nil))
	out := d.Print(context.Background(), " EPSON_TM ", kitchenDoc)

	assert.Equal(t, Outcome{Status: StatusPrinted, Destination: "EPSON_TM", Message: "Printed to EPSON_TM"}, out)
	r.AssertExpectations(t)
	s.AssertExpectations(t)
}

func TestPrintFailure(t *testing.T) {
	r := new(MockRasterizer)
	s := new(MockSpooler)
	r.On("Rasterize", mock.Anything, mock.Anything).Return([]byte("pdf"), nil)
	s.On("Spool", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("lp: The printer or class does not exist."))

	d := NewDispatcher(r, s, time.Second, logger.New(nil))
	out := d.Print(context.Background(), "ghost", kitchenDoc)

	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, "Failed: lp: The printer or class does not exist.", out.Message)
}

func TestPrintTimeout(t *testing.T) {
	block := funcRasterizer(func(ctx context.Context, doc receipt.Document) ([]byte, error) {
		<-ctx.Done()
		time.Sleep(20 * time.Millisecond)
		return nil, errors.New("late")
	})
	s := new(MockSpooler)

	d := NewDispatcher(block, s, 30*time.Millisecond, logger.New(nil))
	start := time.Now()
	out := d.Print(context.Background(), "slow", kitchenDoc)

	assert.Equal(t, StatusTimeout, out.Status)
	assert.Equal(t, "Printing timeout reached.", out.Message)
	assert.Less(t, time.Since(start), time.Second)
	s.AssertNotCalled(t, "Spool", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPrintRecoversPanic(t *testing.T) {
	boom := funcRasterizer(func(ctx context.Context, doc receipt.Document) ([]byte, error) {
		panic("driver crashed")
	})

	d := NewDispatcher(boom, new(MockSpooler), time.Second, logger.New(nil))
	out := d.Print(context.Background(), "EPSON", kitchenDoc)

	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, "System error: driver crashed", out.Message)
}

func TestIsConfigured(t *testing.T) {
	assert.False(t, IsConfigured("nOnE"))
	assert.False(t, IsConfigured(""))
	assert.True(t, IsConfigured("Kitchen-58"))
}
