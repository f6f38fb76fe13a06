package dispatch

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auditkit/ismsp/internal/store"
)

func newTestDispatcher(t *testing.T, workers int) (*Dispatcher, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	_, err = s.Seed(context.Background())
	require.NoError(t, err)

	d := New(s, store.DefaultThresholds(), workers)
	t.Cleanup(d.Close)
	return d, s
}

func TestDo_SearchRequirements(t *testing.T) {
	d, _ := newTestDispatcher(t, 2)

	out, err := d.Do(context.Background(), SearchRequirements{Keyword: "암호"})
	require.NoError(t, err)

	require.Len(t, out.Matches, 2)
	assert.Equal(t, "2.7.1", out.Matches[0].ItemCode)
	assert.Equal(t, "3.2.2", out.Matches[1].ItemCode)
}

func TestDo_SearchValidation(t *testing.T) {
	d, _ := newTestDispatcher(t, 1)

	_, err := d.Do(context.Background(), SearchRequirements{Keyword: "  "})
	assert.True(t, store.IsValidation(err), "expected validation error, got %v", err)
}

func TestDo_GetRequirementDetail(t *testing.T) {
	d, _ := newTestDispatcher(t, 1)
	ctx := context.Background()

	out, err := d.Do(ctx, GetRequirementDetail{ItemCode: "2.7.1"})
	require.NoError(t, err)
	require.NotNil(t, out.Detail)
	assert.Equal(t, "암호정책 수립", out.Detail.Requirement.Title)
	assert.Empty(t, out.Detail.Evidence)
	assert.Equal(t, 0, out.Detail.Coverage.Covered)

	_, err = d.Do(ctx, GenerateEvidence{
		ItemCode: "2.7.1", EvidenceType: "문서", Content: "암호정책서 v1.0",
	})
	require.NoError(t, err)

	out, err = d.Do(ctx, GetRequirementDetail{ItemCode: "2.7.1"})
	require.NoError(t, err)
	require.Len(t, out.Detail.Evidence, 1)
	assert.Equal(t, 1, out.Detail.Coverage.Covered)
	assert.Equal(t, 100.0, out.Detail.Coverage.Rate)
}

func TestDo_GetRequirementDetail_NotFound(t *testing.T) {
	d, _ := newTestDispatcher(t, 1)

	_, err := d.Do(context.Background(), GetRequirementDetail{ItemCode: "9.9.9"})
	assert.True(t, store.IsNotFound(err), "expected not-found error, got %v", err)
}

func TestDo_GenerateEvidence(t *testing.T) {
	d, _ := newTestDispatcher(t, 1)

	out, err := d.Do(context.Background(), GenerateEvidence{
		ItemCode: "1.1.1", EvidenceType: "정책문서", Content: "정보보호 정책서 제정",
	})
	require.NoError(t, err)
	require.NotNil(t, out.Evidence)

	assert.Equal(t, int64(1), out.Evidence.ID)
	assert.Equal(t, "정책 수립", out.Evidence.Requirement.Title)
	assert.Equal(t, store.StatusCompleted, out.Evidence.Evidence.Status)
	assert.NotEmpty(t, out.Evidence.Evidence.CreatedAt)
}

func TestDo_CheckCompliance(t *testing.T) {
	d, _ := newTestDispatcher(t, 1)
	ctx := context.Background()

	out, err := d.Do(ctx, CheckCompliance{})
	require.NoError(t, err)
	require.NotNil(t, out.Compliance)
	assert.Equal(t, 0.0, out.Compliance.Overall.Rate)
	assert.Equal(t, store.TierFail, out.Compliance.Tier)
	assert.NotEmpty(t, out.Compliance.Categories)

	_, err = d.Do(ctx, GenerateEvidence{ItemCode: "2.5.1", EvidenceType: "절차서", Content: "계정 관리 절차"})
	require.NoError(t, err)

	out, err = d.Do(ctx, CheckCompliance{Category: "인증 및 권한 관리"})
	require.NoError(t, err)
	assert.Equal(t, 50.0, out.Compliance.Overall.Rate)
	assert.Equal(t, store.TierWarn, out.Compliance.Tier)
	assert.Empty(t, out.Compliance.Categories, "scoped rollup carries no per-category breakdown")
}

func TestDo_CreateAuditReport(t *testing.T) {
	d, _ := newTestDispatcher(t, 1)
	ctx := context.Background()

	_, err := d.Do(ctx, GenerateEvidence{ItemCode: "1.1.1", EvidenceType: "문서", Content: "정책서"})
	require.NoError(t, err)

	out, err := d.Do(ctx, CreateAuditReport{})
	require.NoError(t, err)
	require.NotNil(t, out.Report)
	assert.Equal(t, 1, out.Report.CoveredInWindow)
	assert.Equal(t, 1, out.Report.EvidenceInWindow)
	assert.Equal(t, store.TierFail, out.Report.Recommendation)
}

func TestDo_CreateAuditReport_BadDates(t *testing.T) {
	d, _ := newTestDispatcher(t, 1)

	_, err := d.Do(context.Background(), CreateAuditReport{StartDate: "not-a-date"})
	assert.True(t, store.IsValidation(err), "expected validation error, got %v", err)
}

func TestDo_ContextCanceled(t *testing.T) {
	d, _ := newTestDispatcher(t, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Do(ctx, SearchRequirements{Keyword: "암호"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDo_ConcurrentRequests(t *testing.T) {
	d, _ := newTestDispatcher(t, 4)
	ctx := context.Background()

	// Writers and readers racing through the pool must each see a
	// consistent store: no lost writes, no torn reads.
	codes := []string{"1.1.1", "1.1.2", "1.2.1", "2.1.1", "2.2.1"}
	var wg sync.WaitGroup
	errs := make(chan error, len(codes)*2)
	for _, code := range codes {
		wg.Add(2)
		go func(code string) {
			defer wg.Done()
			_, err := d.Do(ctx, GenerateEvidence{ItemCode: code, EvidenceType: "문서", Content: "증적"})
			errs <- err
		}(code)
		go func() {
			defer wg.Done()
			_, err := d.Do(ctx, CheckCompliance{})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	out, err := d.Do(ctx, CheckCompliance{})
	require.NoError(t, err)
	assert.Equal(t, len(codes), out.Compliance.Overall.Covered)
}
