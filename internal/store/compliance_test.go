package store

import (
	"context"
	"testing"
)

func TestRateOf(t *testing.T) {
	cases := []struct {
		covered, total int
		want           float64
	}{
		{0, 0, 0.0},
		{0, 1, 0.0},
		{1, 1, 100.0},
		{1, 3, 33.3},
		{2, 3, 66.7},
		{23, 23, 100.0},
	}
	for _, tc := range cases {
		if got := rateOf(tc.covered, tc.total); got != tc.want {
			t.Errorf("rateOf(%d, %d) = %v, want %v", tc.covered, tc.total, got, tc.want)
		}
	}
}

func TestThresholds_Tier(t *testing.T) {
	th := DefaultThresholds()

	cases := []struct {
		rate float64
		want string
	}{
		{100.0, TierOK},
		{80.0, TierOK},
		{79.9, TierWarn},
		{50.0, TierWarn},
		{49.9, TierFail},
		{0.0, TierFail},
	}
	for _, tc := range cases {
		if got := th.Tier(tc.rate); got != tc.want {
			t.Errorf("Tier(%v) = %q, want %q", tc.rate, got, tc.want)
		}
	}
}

func TestOverallCompliance_SingleRequirement(t *testing.T) {
	s := createCatalogStore(t, Requirement{
		ItemCode: "1.1.1", Category: "관리체계 기반 마련", Title: "정책 수립",
	})
	ctx := context.Background()

	cov, err := s.OverallCompliance(ctx, "")
	if err != nil {
		t.Fatalf("OverallCompliance() failed: %v", err)
	}
	if cov.Total != 1 || cov.Covered != 0 || cov.Rate != 0.0 {
		t.Errorf("coverage = %+v, want total=1 covered=0 rate=0.0", cov)
	}

	if _, err := s.InsertEvidence(ctx, "1.1.1", "문서", "정책서"); err != nil {
		t.Fatalf("InsertEvidence() failed: %v", err)
	}

	cov, err = s.OverallCompliance(ctx, "")
	if err != nil {
		t.Fatalf("OverallCompliance() failed: %v", err)
	}
	if cov.Total != 1 || cov.Covered != 1 || cov.Rate != 100.0 {
		t.Errorf("coverage = %+v, want total=1 covered=1 rate=100.0", cov)
	}
}

func TestOverallCompliance_DuplicateEvidenceCountsOnce(t *testing.T) {
	s := createSeededStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := s.InsertEvidence(ctx, "2.7.1", "문서", "암호정책서"); err != nil {
			t.Fatalf("InsertEvidence() failed: %v", err)
		}
	}

	cov, err := s.OverallCompliance(ctx, "")
	if err != nil {
		t.Fatalf("OverallCompliance() failed: %v", err)
	}
	if cov.Covered != 1 {
		t.Errorf("covered = %d, want 1 (distinct item codes)", cov.Covered)
	}
	if cov.Total != len(seedRequirements) {
		t.Errorf("total = %d, want %d", cov.Total, len(seedRequirements))
	}
}

func TestOverallCompliance_CategoryFilter(t *testing.T) {
	s := createSeededStore(t)
	ctx := context.Background()

	// 인증 및 권한 관리 holds 2.5.1 and 2.5.2; covering one gives 50%.
	if _, err := s.InsertEvidence(ctx, "2.5.1", "절차서", "계정 관리 절차"); err != nil {
		t.Fatalf("InsertEvidence() failed: %v", err)
	}
	// Evidence outside the category must not leak into the rollup.
	if _, err := s.InsertEvidence(ctx, "1.1.1", "문서", "정책서"); err != nil {
		t.Fatalf("InsertEvidence() failed: %v", err)
	}

	cov, err := s.OverallCompliance(ctx, "인증 및 권한 관리")
	if err != nil {
		t.Fatalf("OverallCompliance() failed: %v", err)
	}
	if cov.Total != 2 || cov.Covered != 1 || cov.Rate != 50.0 {
		t.Errorf("coverage = %+v, want total=2 covered=1 rate=50.0", cov)
	}
}

func TestComplianceByCategory(t *testing.T) {
	s := createCatalogStore(t,
		Requirement{ItemCode: "1.1.1", Category: "가 분류", Title: "a"},
		Requirement{ItemCode: "1.1.2", Category: "가 분류", Title: "b"},
		Requirement{ItemCode: "2.1.1", Category: "나 분류", Title: "c"},
	)
	ctx := context.Background()

	if _, err := s.InsertEvidence(ctx, "1.1.1", "문서", "증적"); err != nil {
		t.Fatalf("InsertEvidence() failed: %v", err)
	}

	rollups, err := s.ComplianceByCategory(ctx)
	if err != nil {
		t.Fatalf("ComplianceByCategory() failed: %v", err)
	}
	if len(rollups) != 2 {
		t.Fatalf("got %d rollups, want 2", len(rollups))
	}

	first := rollups[0]
	if first.Category != "가 분류" || first.Total != 2 || first.Covered != 1 || first.Rate != 50.0 {
		t.Errorf("rollups[0] = %+v, want 가 분류 total=2 covered=1 rate=50.0", first)
	}
	second := rollups[1]
	if second.Category != "나 분류" || second.Total != 1 || second.Covered != 0 || second.Rate != 0.0 {
		t.Errorf("rollups[1] = %+v, want 나 분류 total=1 covered=0 rate=0.0", second)
	}
}

func TestOverallCompliance_EmptyCatalog(t *testing.T) {
	s := createCatalogStore(t)

	cov, err := s.OverallCompliance(context.Background(), "")
	if err != nil {
		t.Fatalf("OverallCompliance() failed: %v", err)
	}
	if cov.Total != 0 || cov.Rate != 0.0 {
		t.Errorf("coverage = %+v, want total=0 rate=0.0", cov)
	}
}
