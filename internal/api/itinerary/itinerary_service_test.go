package itinerary

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/FACorreiaa/go-travel-agent-crm/app/observability/metrics"
	"github.com/FACorreiaa/go-travel-agent-crm/internal/api"
	"github.com/FACorreiaa/go-travel-agent-crm/internal/types"
)

type MockGenerationRepository struct {
	mock.Mock
}

func (m *MockGenerationRepository) SaveGeneration(ctx context.Context, rec types.GenerationRecord) (uuid.UUID, error) {
	args := m.Called(ctx, rec)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockGenerationRepository) ListGenerationsByLead(ctx context.Context, leadID string) ([]types.GenerationRecord, error) {
	args := m.Called(ctx, leadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.GenerationRecord), args.Error(1)
}

type MockDayPlanGenerator struct {
	mock.Mock
}

func (m *MockDayPlanGenerator) GenerateDayPlans(ctx context.Context, destination string, dayCount, travellerCount int) ([]types.GeneratedDay, error) {
	args := m.Called(ctx, destination, dayCount, travellerCount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.GeneratedDay), args.Error(1)
}

func testMetrics(t *testing.T) *metrics.AppMetrics {
	t.Helper()
	m, err := metrics.New(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	return m
}

func intPtr(v int) *int { return &v }

func setupServiceTest(t *testing.T) (*ServiceImpl, *MockTemplateStore, *MockGenerationRepository, *MockDayPlanGenerator) {
	t.Helper()
	templates := new(MockTemplateStore)
	generations := new(MockGenerationRepository)
	generator := new(MockDayPlanGenerator)
	svc := NewServiceImpl(templates, generations, generator, testMetrics(t), discardLogger(), Options{
		AITimeout:    time.Second,
		WriteTimeout: time.Second,
	})
	return svc, templates, generations, generator
}

func generatedDays(n int) []types.GeneratedDay {
	out := make([]types.GeneratedDay, n)
	for i := range out {
		out[i] = types.GeneratedDay{
			Title:          fmt.Sprintf("AI day %d", i+1),
			Description:    "Famous places.",
			VisitingPlaces: []string{"Fort Aguada", "Baga Beach", "Basilica"},
			Hotel:          &types.Hotel{Name: "Taj", Category: "5 Star"},
			Vehicle:        &types.Vehicle{Type: "SUV"},
		}
	}
	return out
}

func assertDayNumbers(t *testing.T, body types.ItineraryBody, want int) {
	t.Helper()
	require.Len(t, body.Days, want)
	seen := map[uuid.UUID]bool{}
	for i, d := range body.Days {
		assert.Equal(t, i+1, d.DayNumber)
		assert.NotEqual(t, uuid.Nil, d.ID)
		assert.False(t, seen[d.ID], "day ids must be unique")
		seen[d.ID] = true
	}
}

func TestGenerateItinerary_Validation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		req  types.GenerateItineraryRequest
	}{
		{"missing destination", types.GenerateItineraryRequest{LeadID: "lead-1", Days: intPtr(3)}},
		{"missing lead", types.GenerateItineraryRequest{Destination: "Goa", Days: intPtr(3)}},
		{"missing days", types.GenerateItineraryRequest{LeadID: "lead-1", Destination: "Goa"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, templates, generations, generator := setupServiceTest(t)

			result, err := svc.GenerateItinerary(ctx, tt.req)
			require.ErrorIs(t, err, api.ErrInvalidRequest)
			assert.Nil(t, result)

			templates.AssertNotCalled(t, "GetTemplate", mock.Anything, mock.Anything, mock.Anything)
			templates.AssertNotCalled(t, "PutTemplateIfAbsent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			generator.AssertNotCalled(t, "GenerateDayPlans", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			generations.AssertNotCalled(t, "SaveGeneration", mock.Anything, mock.Anything)
		})
	}
}

func TestGenerateItinerary_ZeroDays(t *testing.T) {
	for _, days := range []int{0, -2} {
		t.Run(fmt.Sprintf("days=%d", days), func(t *testing.T) {
			svc, templates, generations, generator := setupServiceTest(t)

			result, err := svc.GenerateItinerary(context.Background(), types.GenerateItineraryRequest{
				LeadID: "lead-1", Destination: "Goa", Days: intPtr(days),
			})
			require.NoError(t, err)
			assert.False(t, result.Degraded)
			assert.Equal(t, types.ItinerarySourceAI, result.Source)
			assert.NotNil(t, result.Itinerary.Days)
			assert.Empty(t, result.Itinerary.Days)

			templates.AssertNotCalled(t, "GetTemplate", mock.Anything, mock.Anything, mock.Anything)
			generator.AssertNotCalled(t, "GenerateDayPlans", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			generations.AssertNotCalled(t, "SaveGeneration", mock.Anything, mock.Anything)
		})
	}
}

func TestGenerateItinerary_TemplateHit(t *testing.T) {
	svc, templates, generations, generator := setupServiceTest(t)
	stored := sampleBody("Beaches", "Forts", "Markets")

	templates.On("GetTemplate", mock.Anything, "goa", 3).Return(&stored, true, nil).Once()

	result, err := svc.GenerateItinerary(context.Background(), types.GenerateItineraryRequest{
		LeadID: "lead-1", Destination: "  Goa ", Days: intPtr(3),
	})
	require.NoError(t, err)
	assert.Equal(t, types.ItinerarySourceTemplate, result.Source)
	assert.Equal(t, stored, result.Itinerary)

	templates.AssertExpectations(t)
	templates.AssertNotCalled(t, "PutTemplateIfAbsent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	generator.AssertNotCalled(t, "GenerateDayPlans", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	generations.AssertNotCalled(t, "SaveGeneration", mock.Anything, mock.Anything)
}

func TestGenerateItinerary_MissGeneratesAndPersists(t *testing.T) {
	svc, templates, generations, generator := setupServiceTest(t)

	templates.On("GetTemplate", mock.Anything, "goa", 2).Return(nil, false, nil).Once()
	generator.On("GenerateDayPlans", mock.Anything, "Goa", 2, 4).Return(generatedDays(2), nil).Once()
	generations.On("SaveGeneration", mock.Anything, mock.MatchedBy(func(rec types.GenerationRecord) bool {
		return rec.LeadID == "lead-1" && rec.Destination == "goa" && rec.Source == "Instagram" &&
			rec.Days == 2 && rec.Travellers == 4 && len(rec.Itinerary.Days) == 2
	})).Return(uuid.New(), nil).Once()
	templates.On("PutTemplateIfAbsent", mock.Anything, "goa", 2, mock.AnythingOfType("types.ItineraryBody")).Return(true, nil).Once()

	result, err := svc.GenerateItinerary(context.Background(), types.GenerateItineraryRequest{
		LeadID: "lead-1", Destination: "Goa", Days: intPtr(2), Travellers: 4, Source: "Instagram",
	})
	require.NoError(t, err)
	assert.Equal(t, types.ItinerarySourceAI, result.Source)
	assertDayNumbers(t, result.Itinerary, 2)
	assert.Equal(t, "AI day 1", result.Itinerary.Days[0].Title)
	assert.Equal(t, "SUV", result.Itinerary.Days[0].Vehicle.Type)
	assert.Equal(t, "", result.Itinerary.Days[0].Vehicle.Model)
	assert.Equal(t, "Taj", result.Itinerary.Days[1].Hotel.Name)
	assert.Equal(t, []string{}, result.Itinerary.Days[0].Images)

	templates.AssertExpectations(t)
	generator.AssertExpectations(t)
	generations.AssertExpectations(t)
}

func TestGenerateItinerary_Defaults(t *testing.T) {
	svc, templates, generations, generator := setupServiceTest(t)

	templates.On("GetTemplate", mock.Anything, "goa", 1).Return(nil, false, nil).Once()
	generator.On("GenerateDayPlans", mock.Anything, "Goa", 1, DefaultTravellers).Return(generatedDays(1), nil).Once()
	generations.On("SaveGeneration", mock.Anything, mock.MatchedBy(func(rec types.GenerationRecord) bool {
		return rec.Source == DefaultSource && rec.Travellers == DefaultTravellers
	})).Return(uuid.New(), nil).Once()
	templates.On("PutTemplateIfAbsent", mock.Anything, "goa", 1, mock.Anything).Return(true, nil).Once()

	_, err := svc.GenerateItinerary(context.Background(), types.GenerateItineraryRequest{
		LeadID: "lead-1", Destination: "Goa", Days: intPtr(1),
	})
	require.NoError(t, err)
	generator.AssertExpectations(t)
	generations.AssertExpectations(t)
}

func TestGenerateItinerary_AlwaysReturnsRequestedDays(t *testing.T) {
	for _, days := range []int{1, 3, 5, 10} {
		t.Run(fmt.Sprintf("days=%d", days), func(t *testing.T) {
			svc, templates, generations, generator := setupServiceTest(t)

			templates.On("GetTemplate", mock.Anything, "goa", days).Return(nil, false, nil).Once()
			generator.On("GenerateDayPlans", mock.Anything, "Goa", min(days, DefaultRealDayCap), mock.Anything).
				Return(generatedDays(min(days, DefaultRealDayCap)), nil).Once()
			generations.On("SaveGeneration", mock.Anything, mock.Anything).Return(uuid.New(), nil).Once()
			templates.On("PutTemplateIfAbsent", mock.Anything, "goa", days, mock.Anything).Return(true, nil).Once()

			result, err := svc.GenerateItinerary(context.Background(), types.GenerateItineraryRequest{
				LeadID: "lead-1", Destination: "Goa", Days: intPtr(days),
			})
			require.NoError(t, err)
			assertDayNumbers(t, result.Itinerary, days)
		})
	}
}

func TestGenerateItinerary_BoundedRealDays(t *testing.T) {
	svc, templates, generations, generator := setupServiceTest(t)

	templates.On("GetTemplate", mock.Anything, "goa", 10).Return(nil, false, nil).Once()
	// The provider ignores the requested count and returns five days.
	generator.On("GenerateDayPlans", mock.Anything, "Goa", 3, mock.Anything).Return(generatedDays(5), nil).Once()
	generations.On("SaveGeneration", mock.Anything, mock.Anything).Return(uuid.New(), nil).Once()
	templates.On("PutTemplateIfAbsent", mock.Anything, "goa", 10, mock.Anything).Return(true, nil).Once()

	result, err := svc.GenerateItinerary(context.Background(), types.GenerateItineraryRequest{
		LeadID: "lead-1", Destination: "Goa", Days: intPtr(10),
	})
	require.NoError(t, err)
	assertDayNumbers(t, result.Itinerary, 10)

	for i, d := range result.Itinerary.Days {
		if i < 3 {
			assert.Equal(t, fmt.Sprintf("AI day %d", i+1), d.Title)
			continue
		}
		assert.Equal(t, fmt.Sprintf("Day %d in Goa", i+1), d.Title)
		assert.Equal(t, "Exploring more hidden gems and local culture in Goa.", d.Description)
		assert.Equal(t, []string{"Spot A in Goa", "Spot B in Goa"}, d.VisitingPlaces)
		assert.Equal(t, &types.Hotel{Name: "Standard Hotel", Category: "3 Star"}, d.Hotel)
		assert.Equal(t, &types.Vehicle{Type: "Sedan"}, d.Vehicle)
		assert.Equal(t, []string{}, d.Images)
	}
}

func TestGenerateItinerary_GeneratorFailure(t *testing.T) {
	svc, templates, generations, generator := setupServiceTest(t)

	templates.On("GetTemplate", mock.Anything, "goa", 4).Return(nil, false, nil).Once()
	generator.On("GenerateDayPlans", mock.Anything, "Goa", 3, mock.Anything).Return(nil, errors.New("model overloaded")).Once()
	generations.On("SaveGeneration", mock.Anything, mock.Anything).Return(uuid.New(), nil).Once()
	templates.On("PutTemplateIfAbsent", mock.Anything, "goa", 4, mock.Anything).Return(true, nil).Once()

	result, err := svc.GenerateItinerary(context.Background(), types.GenerateItineraryRequest{
		LeadID: "lead-1", Destination: "Goa", Days: intPtr(4),
	})
	require.NoError(t, err)
	assert.False(t, result.Degraded)
	assert.Equal(t, types.ItinerarySourceAI, result.Source)
	assertDayNumbers(t, result.Itinerary, 4)
	for i, d := range result.Itinerary.Days {
		assert.Equal(t, fmt.Sprintf("Day %d in Goa", i+1), d.Title)
		assert.Equal(t, "Standard Hotel", d.Hotel.Name)
	}
}

func TestGenerateItinerary_PartialGeneratedDays(t *testing.T) {
	svc, templates, generations, generator := setupServiceTest(t)

	partial := []types.GeneratedDay{
		{Title: "  ", VisitingPlaces: []string{}, Vehicle: &types.Vehicle{}},
	}
	templates.On("GetTemplate", mock.Anything, "goa", 2).Return(nil, false, nil).Once()
	generator.On("GenerateDayPlans", mock.Anything, "Goa", 2, mock.Anything).Return(partial, nil).Once()
	generations.On("SaveGeneration", mock.Anything, mock.Anything).Return(uuid.New(), nil).Once()
	templates.On("PutTemplateIfAbsent", mock.Anything, "goa", 2, mock.Anything).Return(true, nil).Once()

	result, err := svc.GenerateItinerary(context.Background(), types.GenerateItineraryRequest{
		LeadID: "lead-1", Destination: "Goa", Days: intPtr(2),
	})
	require.NoError(t, err)
	assertDayNumbers(t, result.Itinerary, 2)

	first := result.Itinerary.Days[0]
	assert.Equal(t, "Day 1 in Goa", first.Title)
	assert.Equal(t, "Exploring Goa.", first.Description)
	assert.Equal(t, []string{"Popular Spot 1", "Popular Spot 2"}, first.VisitingPlaces)
	assert.Equal(t, &types.Vehicle{Type: "Sedan"}, first.Vehicle)
	assert.Equal(t, &types.Hotel{Name: "Sample Hotel", Category: "4 Star"}, first.Hotel)

	assert.Equal(t, "Exploring more hidden gems and local culture in Goa.", result.Itinerary.Days[1].Description)
}

type blockingGenerator struct{}

func (blockingGenerator) GenerateDayPlans(ctx context.Context, _ string, _, _ int) ([]types.GeneratedDay, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestGenerateItinerary_GeneratorTimeout(t *testing.T) {
	store := NewMemoryTemplateStore()
	generations := new(MockGenerationRepository)
	generations.On("SaveGeneration", mock.Anything, mock.Anything).Return(uuid.New(), nil).Once()

	svc := NewServiceImpl(store, generations, blockingGenerator{}, testMetrics(t), discardLogger(), Options{
		AITimeout:    50 * time.Millisecond,
		WriteTimeout: time.Second,
	})

	start := time.Now()
	result, err := svc.GenerateItinerary(context.Background(), types.GenerateItineraryRequest{
		LeadID: "lead-1", Destination: "Goa", Days: intPtr(2),
	})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assertDayNumbers(t, result.Itinerary, 2)
	assert.Equal(t, "Spot A in Goa", result.Itinerary.Days[0].VisitingPlaces[0])
}

func TestGenerateItinerary_StoreFailuresAreSwallowed(t *testing.T) {
	svc, templates, generations, generator := setupServiceTest(t)

	templates.On("GetTemplate", mock.Anything, "goa", 1).Return(nil, false, errors.New("db down")).Once()
	generator.On("GenerateDayPlans", mock.Anything, "Goa", 1, mock.Anything).Return(generatedDays(1), nil).Once()
	generations.On("SaveGeneration", mock.Anything, mock.Anything).Return(uuid.Nil, errors.New("db down")).Once()
	templates.On("PutTemplateIfAbsent", mock.Anything, "goa", 1, mock.Anything).Return(false, errors.New("db down")).Once()

	result, err := svc.GenerateItinerary(context.Background(), types.GenerateItineraryRequest{
		LeadID: "lead-1", Destination: "Goa", Days: intPtr(1),
	})
	require.NoError(t, err)
	assert.False(t, result.Degraded)
	assert.Equal(t, types.ItinerarySourceAI, result.Source)
	assertDayNumbers(t, result.Itinerary, 1)
	templates.AssertExpectations(t)
	generations.AssertExpectations(t)
}

func TestGenerateItinerary_WritesSurviveCallerCancellation(t *testing.T) {
	svc, templates, generations, generator := setupServiceTest(t)
	ctx, cancel := context.WithCancel(context.Background())

	templates.On("GetTemplate", mock.Anything, "goa", 1).Return(nil, false, nil).Once()
	generator.On("GenerateDayPlans", mock.Anything, "Goa", 1, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(generatedDays(1), nil).Once()
	generations.On("SaveGeneration", mock.MatchedBy(func(c context.Context) bool { return c.Err() == nil }), mock.Anything).
		Return(uuid.New(), nil).Once()
	templates.On("PutTemplateIfAbsent", mock.MatchedBy(func(c context.Context) bool { return c.Err() == nil }), "goa", 1, mock.Anything).
		Return(true, nil).Once()

	result, err := svc.GenerateItinerary(ctx, types.GenerateItineraryRequest{
		LeadID: "lead-1", Destination: "Goa", Days: intPtr(1),
	})
	require.NoError(t, err)
	assertDayNumbers(t, result.Itinerary, 1)
	generations.AssertExpectations(t)
	templates.AssertExpectations(t)
}

func TestGenerateItinerary_PanicDegrades(t *testing.T) {
	svc, templates, generations, _ := setupServiceTest(t)

	templates.On("GetTemplate", mock.Anything, "goa", 2).Run(func(mock.Arguments) {
		panic("driver bug")
	}).Return(nil, false, nil).Once()

	result, err := svc.GenerateItinerary(context.Background(), types.GenerateItineraryRequest{
		LeadID: "lead-1", Destination: "Goa", Days: intPtr(2),
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.Degraded)
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "driver bug")
	assert.NotNil(t, result.Itinerary.Days)
	assert.Empty(t, result.Itinerary.Days)
	generations.AssertNotCalled(t, "SaveGeneration", mock.Anything, mock.Anything)
}

type panickingGenerator struct{}

func (panickingGenerator) GenerateDayPlans(context.Context, string, int, int) ([]types.GeneratedDay, error) {
	panic("nil response from provider")
}

func TestGenerateItinerary_GeneratorPanicFallsBackToGenericDays(t *testing.T) {
	templates := new(MockTemplateStore)
	generations := new(MockGenerationRepository)
	svc := NewServiceImpl(templates, generations, panickingGenerator{}, testMetrics(t), discardLogger(), Options{
		AITimeout:    time.Second,
		WriteTimeout: time.Second,
	})

	templates.On("GetTemplate", mock.Anything, "goa", 4).Return(nil, false, nil).Once()
	generations.On("SaveGeneration", mock.Anything, mock.Anything).Return(uuid.New(), nil).Once()
	templates.On("PutTemplateIfAbsent", mock.Anything, "goa", 4, mock.Anything).Return(true, nil).Once()

	result, err := svc.GenerateItinerary(context.Background(), types.GenerateItineraryRequest{
		LeadID: "lead-1", Destination: "Goa", Days: intPtr(4),
	})
	require.NoError(t, err)
	assert.False(t, result.Degraded)
	assert.NoError(t, result.Err)
	assert.Equal(t, types.ItinerarySourceAI, result.Source)
	assertDayNumbers(t, result.Itinerary, 4)
	for i, d := range result.Itinerary.Days {
		assert.Equal(t, fmt.Sprintf("Day %d in Goa", i+1), d.Title)
	}
	templates.AssertExpectations(t)
	generations.AssertExpectations(t)
}

func TestGenerateItinerary_TooManyDays(t *testing.T) {
	t.Run("over configured limit", func(t *testing.T) {
		templates := new(MockTemplateStore)
		generations := new(MockGenerationRepository)
		generator := new(MockDayPlanGenerator)
		svc := NewServiceImpl(templates, generations, generator, testMetrics(t), discardLogger(), Options{MaxDays: 5})

		result, err := svc.GenerateItinerary(context.Background(), types.GenerateItineraryRequest{
			LeadID: "lead-1", Destination: "Goa", Days: intPtr(6),
		})
		require.ErrorIs(t, err, api.ErrInvalidRequest)
		require.ErrorIs(t, err, ErrTooManyDays)
		assert.Nil(t, result)

		templates.AssertNotCalled(t, "GetTemplate", mock.Anything, mock.Anything, mock.Anything)
		templates.AssertNotCalled(t, "PutTemplateIfAbsent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		generator.AssertNotCalled(t, "GenerateDayPlans", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		generations.AssertNotCalled(t, "SaveGeneration", mock.Anything, mock.Anything)
	})

	t.Run("default limit", func(t *testing.T) {
		svc, templates, _, _ := setupServiceTest(t)
		assert.Equal(t, DefaultMaxDays, svc.opts.MaxDays)

		_, err := svc.GenerateItinerary(context.Background(), types.GenerateItineraryRequest{
			LeadID: "lead-1", Destination: "Goa", Days: intPtr(DefaultMaxDays + 1),
		})
		require.ErrorIs(t, err, ErrTooManyDays)
		templates.AssertNotCalled(t, "GetTemplate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("at the limit", func(t *testing.T) {
		store := NewMemoryTemplateStore()
		generations := new(MockGenerationRepository)
		generations.On("SaveGeneration", mock.Anything, mock.Anything).Return(uuid.New(), nil).Once()
		svc := NewServiceImpl(store, generations, &countingGenerator{}, testMetrics(t), discardLogger(), Options{MaxDays: 5})

		result, err := svc.GenerateItinerary(context.Background(), types.GenerateItineraryRequest{
			LeadID: "lead-1", Destination: "Goa", Days: intPtr(5),
		})
		require.NoError(t, err)
		assertDayNumbers(t, result.Itinerary, 5)
	})
}

func TestGenerateItinerary_StoredTemplateWithWrongLengthIsMiss(t *testing.T) {
	svc, templates, generations, generator := setupServiceTest(t)

	stale := sampleBody("Old day")
	require.Len(t, stale.Days, 1)
	templates.On("GetTemplate", mock.Anything, "goa", 2).Return(&stale, true, nil).Once()
	generator.On("GenerateDayPlans", mock.Anything, "Goa", 2, mock.Anything).Return(generatedDays(2), nil).Once()
	generations.On("SaveGeneration", mock.Anything, mock.Anything).Return(uuid.New(), nil).Once()
	templates.On("PutTemplateIfAbsent", mock.Anything, "goa", 2, mock.Anything).Return(false, nil).Once()

	result, err := svc.GenerateItinerary(context.Background(), types.GenerateItineraryRequest{
		LeadID: "lead-1", Destination: "Goa", Days: intPtr(2),
	})
	require.NoError(t, err)
	assert.Equal(t, types.ItinerarySourceAI, result.Source)
	assertDayNumbers(t, result.Itinerary, 2)
	generator.AssertExpectations(t)
	templates.AssertExpectations(t)
}

func TestNewServiceImpl_NilMetrics(t *testing.T) {
	generations := new(MockGenerationRepository)
	generations.On("SaveGeneration", mock.Anything, mock.Anything).Return(uuid.New(), nil).Once()
	svc := NewServiceImpl(NewMemoryTemplateStore(), generations, &countingGenerator{}, nil, discardLogger(), DefaultOptions())

	var (
		result *GenerationResult
		err    error
	)
	require.NotPanics(t, func() {
		result, err = svc.GenerateItinerary(context.Background(), types.GenerateItineraryRequest{
			LeadID: "lead-1", Destination: "Goa", Days: intPtr(2),
		})
	})
	require.NoError(t, err)
	assertDayNumbers(t, result.Itinerary, 2)
}

type countingGenerator struct {
	calls atomic.Int32
	delay time.Duration
}

func (g *countingGenerator) GenerateDayPlans(_ context.Context, _ string, dayCount, _ int) ([]types.GeneratedDay, error) {
	g.calls.Add(1)
	time.Sleep(g.delay)
	return generatedDays(dayCount), nil
}

func TestGenerateItinerary_ConcurrentFirstWriterWins(t *testing.T) {
	store := NewMemoryTemplateStore()
	generations := new(MockGenerationRepository)
	generations.On("SaveGeneration", mock.Anything, mock.Anything).Return(uuid.New(), nil)
	gen := &countingGenerator{delay: 20 * time.Millisecond}

	svc := NewServiceImpl(store, generations, gen, testMetrics(t), discardLogger(), DefaultOptions())

	const callers = 2
	results := make([]*GenerationResult, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.GenerateItinerary(context.Background(), types.GenerateItineraryRequest{
				LeadID: fmt.Sprintf("lead-%d", i), Destination: "Paris", Days: intPtr(2),
			})
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	stored, found, err := store.GetTemplate(context.Background(), "paris", 2)
	require.NoError(t, err)
	require.True(t, found)
	assertDayNumbers(t, *stored, 2)

	// The stored body is one of the bodies returned to a caller that missed.
	matches := 0
	for _, r := range results {
		require.NotNil(t, r)
		if r.Source == types.ItinerarySourceAI && r.Itinerary.Days[0].ID == stored.Days[0].ID {
			matches++
		}
	}
	assert.Equal(t, 1, matches)

	again, _, err := store.GetTemplate(context.Background(), "paris", 2)
	require.NoError(t, err)
	assert.Equal(t, stored, again)

	assert.LessOrEqual(t, gen.calls.Load(), int32(callers))
}

func TestListLeadItineraries(t *testing.T) {
	ctx := context.Background()

	t.Run("returns records", func(t *testing.T) {
		svc, _, generations, _ := setupServiceTest(t)
		records := []types.GenerationRecord{{ID: uuid.New(), LeadID: "lead-1", Destination: "goa"}}
		generations.On("ListGenerationsByLead", mock.Anything, "lead-1").Return(records, nil).Once()

		got, err := svc.ListLeadItineraries(ctx, "lead-1")
		require.NoError(t, err)
		assert.Equal(t, records, got)
		generations.AssertExpectations(t)
	})

	t.Run("blank lead id", func(t *testing.T) {
		svc, _, generations, _ := setupServiceTest(t)
		_, err := svc.ListLeadItineraries(ctx, " ")
		require.ErrorIs(t, err, api.ErrInvalidRequest)
		generations.AssertNotCalled(t, "ListGenerationsByLead", mock.Anything, mock.Anything)
	})

	t.Run("repository error", func(t *testing.T) {
		svc, _, generations, _ := setupServiceTest(t)
		generations.On("ListGenerationsByLead", mock.Anything, "lead-1").Return(nil, errors.New("db down")).Once()

		_, err := svc.ListLeadItineraries(ctx, "lead-1")
		require.Error(t, err)
	})
}
