package factory

import (
	"time"

	"github.com/dalessandro07/bancopoly/internal/dependencies/mocks"
	"github.com/dalessandro07/bancopoly/internal/events/membus"
	"github.com/dalessandro07/bancopoly/internal/services/auth"
	"github.com/dalessandro07/bancopoly/internal/storage/memory"
	"github.com/dalessandro07/bancopoly/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	logger := testutil.NopLogger()
	bus := membus.New(logger)
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(store, bus, mockClock, mockRandom, auth.DefaultConfig(), logger)

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
