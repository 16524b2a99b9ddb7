package services

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/onboarding/modules/stepper/domain/entity"
	"github.com/iota-uz/onboarding/modules/stepper/domain/record"
)

func TestLoader_LoadsChildrenThroughParents(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.seed("/unit", 42, map[string]any{"unitNo": "A1", "partnerId": 7})
	api.seed("/booking", 9, map[string]any{"bookingDate": "2026-02-01", "unitId": 42})
	l := NewLoader(testDefinition(), api, nil)

	res, err := l.Load(context.Background(), 1, "i1", entity.IDs{kindPartner: 7}, nil)
	require.NoError(t, err)
	require.True(t, res.Found)
	require.Equal(t, "A1", res.Fields["unitNo"])
	require.Equal(t, "2026-02-01", res.Fields["bookingDate"])
	require.Equal(t, entity.IDs{kindUnit: 42, kindBooking: 9}, res.IDs)
}

func TestLoader_MissingParentMeansNoData(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	l := NewLoader(testDefinition(), api, nil)

	res, err := l.Load(context.Background(), 1, "i1", entity.IDs{}, nil)
	require.NoError(t, err)
	require.False(t, res.Found)
	require.Empty(t, api.calls)
}

func TestLoader_SanitizesMissingFields(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.seed("/unit", 42, map[string]any{"unitNo": "A1", "partnerId": 7})
	l := NewLoader(testDefinition(), api, nil)

	res, err := l.Load(context.Background(), 1, "i1", entity.IDs{kindPartner: 7}, nil)
	require.NoError(t, err)
	require.Equal(t, "2026-03-14", res.Fields["bookingDate"])
	require.NotContains(t, res.Fields, "partnerType")
}

func TestLoader_EmptyRowsLeaveRecordAlone(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	l := NewLoader(testDefinition(), api, nil)

	res, err := l.Load(context.Background(), 2, "i1", entity.IDs{kindPartner: 7}, nil)
	require.NoError(t, err)
	require.False(t, res.Found)
	require.Equal(t, 1, api.callCount("GET /plan?partnerId.equals=7"))
}

func TestLoader_RowsGetDefaultsAndKeys(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.seed("/plan", 5, map[string]any{"amount": "10", "partnerId": 7})
	l := NewLoader(testDefinition(), api, nil)

	res, err := l.Load(context.Background(), 2, "i1", entity.IDs{kindPartner: 7}, nil)
	require.NoError(t, err)
	rows := res.Fields.Rows("paymentPlan")
	require.Len(t, rows, 1)
	require.Equal(t, "CASH", rows[0]["mode"])
	require.NotEmpty(t, rows[0].Text(record.RowKeyField))
	id, ok := record.RowID(rows[0])
	require.True(t, ok)
	require.Equal(t, int64(5), id)
}

func TestLoader_OncePerIdentityAndStep(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.seed("/partner", 7, map[string]any{"name": "Asha"})
	l := NewLoader(testDefinition(), api, nil)
	ids := entity.IDs{kindPartner: 7}

	res, err := l.Load(context.Background(), 0, "i1", ids, nil)
	require.NoError(t, err)
	require.True(t, res.Found)

	res, err = l.Load(context.Background(), 0, "i1", ids, nil)
	require.NoError(t, err)
	require.True(t, res.Skipped)
	require.Equal(t, 1, api.callCount("GET /partner/7"))

	res, err = l.Load(context.Background(), 0, "i2", ids, nil)
	require.NoError(t, err)
	require.False(t, res.Skipped)

	l.Forget("i1")
	_, err = l.Load(context.Background(), 0, "i1", ids, nil)
	require.NoError(t, err)
	require.Equal(t, 3, api.callCount("GET /partner/7"))
}

func TestLoader_ConcurrentCallsFetchOnce(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.seed("/partner", 7, map[string]any{"name": "Asha"})
	api.block = make(chan struct{})
	l := NewLoader(testDefinition(), api, nil)

	var wg sync.WaitGroup
	results := make([]Reconciled, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = l.Load(context.Background(), 0, "i1", entity.IDs{kindPartner: 7}, nil)
		}(i)
	}
	close(api.block)
	wg.Wait()

	require.Equal(t, 1, api.callCount("GET /partner/7"))
	found := 0
	for _, r := range results {
		if r.Found {
			found++
		}
	}
	require.Equal(t, 1, found)
}

func TestLoader_FailureCanBeRetried(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.seed("/partner", 7, map[string]any{"name": "Asha"})
	api.failOn(http.MethodGet, "/partner", http.StatusBadGateway, "")
	l := NewLoader(testDefinition(), api, nil)

	_, err := l.Load(context.Background(), 0, "i1", entity.IDs{kindPartner: 7}, nil)
	require.Error(t, err)

	api.mu.Lock()
	delete(api.fail, "GET /partner")
	api.mu.Unlock()

	res, err := l.Load(context.Background(), 0, "i1", entity.IDs{kindPartner: 7}, nil)
	require.NoError(t, err)
	require.True(t, res.Found)
}
