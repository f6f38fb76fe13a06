package store

import (
	"context"
	"fmt"
	"log/slog"
)

// canonicalTableSQL is the catalog DDL used when provisioning a fresh
// store. EnsureSchema never creates this — only Seed does, so opening an
// existing database can never clobber a caller-provided catalog shape.
const canonicalTableSQL = `
CREATE TABLE IF NOT EXISTS ` + catalogObject + ` (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    item_code         TEXT UNIQUE NOT NULL,
    category          TEXT,
    title             TEXT NOT NULL,
    description       TEXT,
    requirement       TEXT,
    control_objective TEXT,
    created_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)
`

// seedRequirements is the sample ISMS-P catalog loaded at provisioning
// time: chapter 1 (management system), chapter 2 (protection measures)
// and chapter 3 (personal-data lifecycle).
var seedRequirements = []Requirement{
	{ItemCode: "1.1.1", Category: "관리체계 기반 마련", Title: "정책 수립",
		Description:      "정보보호 및 개인정보보호 정책 수립",
		RequirementText:  "최고경영자는 조직의 정보보호 및 개인정보보호 활동에 대한 방향을 제시하는 정책을 수립하여야 한다.",
		ControlObjective: "정보보호 및 개인정보보호 정책을 수립하고 승인한다"},
	{ItemCode: "1.1.2", Category: "관리체계 기반 마련", Title: "범위 설정",
		Description:      "관리체계 범위 설정",
		RequirementText:  "관리체계의 적용 범위를 명확히 설정하여야 한다.",
		ControlObjective: "조직, 자산, 정보시스템 등 관리체계의 범위를 설정한다"},
	{ItemCode: "1.2.1", Category: "관리체계 기반 마련", Title: "조직 구성",
		Description:      "정보보호 조직 구성",
		RequirementText:  "정보보호 및 개인정보보호 책임과 역할을 정의하고 담당 조직을 구성·운영하여야 한다.",
		ControlObjective: "정보보호 조직을 구성하고 책임과 역할을 부여한다"},
	{ItemCode: "2.1.1", Category: "정책·조직·자산 관리", Title: "정보자산 식별",
		Description:      "정보자산 식별 및 관리",
		RequirementText:  "보호대상 정보자산을 식별하고 중요도를 평가하여 관리하여야 한다.",
		ControlObjective: "정보자산을 식별하고 중요도를 평가한다"},
	{ItemCode: "2.2.1", Category: "인적보안", Title: "주요 직무자 지정",
		Description:      "주요 직무자 지정 및 관리",
		RequirementText:  "정보보호 및 개인정보보호 관련 주요 직무를 정의하고 담당자를 지정하여야 한다.",
		ControlObjective: "주요 직무를 정의하고 담당자를 지정한다"},
	{ItemCode: "2.3.1", Category: "외부자 보안", Title: "외부자 계약 시 보안",
		Description:      "외부자 보안 계약",
		RequirementText:  "외부자가 조직의 정보자산에 접근 시 보안 요구사항을 계약서에 명시하여야 한다.",
		ControlObjective: "외부자 계약 시 보안 조항을 포함한다"},
	{ItemCode: "2.4.1", Category: "물리보안", Title: "보호구역 지정",
		Description:      "물리적 보호구역 지정",
		RequirementText:  "중요 정보자산이 위치한 구역을 물리적 보호구역으로 지정하고 통제하여야 한다.",
		ControlObjective: "물리적 보호구역을 지정하고 출입을 통제한다"},
	{ItemCode: "2.5.1", Category: "인증 및 권한 관리", Title: "사용자 계정 관리",
		Description:      "사용자 식별 및 인증",
		RequirementText:  "사용자 계정을 발급·변경·삭제하는 절차를 수립·이행하여야 한다.",
		ControlObjective: "사용자 계정 관리 절차를 수립하고 이행한다"},
	{ItemCode: "2.5.2", Category: "인증 및 권한 관리", Title: "접근권한 관리",
		Description:      "접근권한 부여 및 관리",
		RequirementText:  "정보자산에 대한 접근권한을 업무 역할에 따라 부여하고 관리하여야 한다.",
		ControlObjective: "역할 기반으로 접근권한을 부여하고 관리한다"},
	{ItemCode: "2.6.1", Category: "접근통제", Title: "네트워크 접근",
		Description:      "네트워크 접근통제",
		RequirementText:  "네트워크에 대한 접근을 인가된 사용자 및 시스템만 허용하여야 한다.",
		ControlObjective: "네트워크 접근을 통제한다"},
	{ItemCode: "2.7.1", Category: "암호화 적용", Title: "암호정책 수립",
		Description:      "암호화 정책 및 절차",
		RequirementText:  "암호화 적용 대상, 암호 알고리즘, 키 관리 등의 정책을 수립하여야 한다.",
		ControlObjective: "암호화 정책을 수립하고 이행한다"},
	{ItemCode: "2.8.1", Category: "정보시스템 도입 및 개발 보안", Title: "보안 요구사항 정의",
		Description:      "정보시스템 도입·개발 시 보안",
		RequirementText:  "정보시스템 도입·개발 시 보안 요구사항을 정의하고 적용하여야 한다.",
		ControlObjective: "보안 요구사항을 정의하고 구현한다"},
	{ItemCode: "2.9.1", Category: "시스템 및 서비스 운영 관리", Title: "로그 관리",
		Description:      "로그 기록 및 보존",
		RequirementText:  "정보시스템 사용에 대한 로그를 기록하고 안전하게 보존하여야 한다.",
		ControlObjective: "로그를 기록하고 정기적으로 검토한다"},
	{ItemCode: "2.9.2", Category: "시스템 및 서비스 운영 관리", Title: "로그 점검",
		Description:      "로그 정기 검토",
		RequirementText:  "정보시스템 로그를 정기적으로 검토하여 이상행위를 탐지하여야 한다.",
		ControlObjective: "로그를 분석하여 이상행위를 탐지한다"},
	{ItemCode: "2.10.1", Category: "시스템 및 서비스 보안 관리", Title: "악성코드 통제",
		Description:      "악성코드 관리",
		RequirementText:  "악성코드 감염을 예방하고 탐지·치료·복구 절차를 수립·이행하여야 한다.",
		ControlObjective: "악성코드 대응 체계를 구축하고 운영한다"},
	{ItemCode: "2.11.1", Category: "사고 예방 및 대응", Title: "사고 대응 절차",
		Description:      "침해사고 대응",
		RequirementText:  "침해사고 탐지·대응·복구를 위한 절차를 수립·이행하여야 한다.",
		ControlObjective: "침해사고 대응 절차를 수립하고 훈련한다"},
	{ItemCode: "2.12.1", Category: "재해 복구", Title: "백업 및 복구",
		Description:      "백업 관리",
		RequirementText:  "중요 정보자산에 대한 백업 및 복구 절차를 수립·이행하여야 한다.",
		ControlObjective: "정기적으로 백업하고 복구 테스트를 수행한다"},
	{ItemCode: "3.1.1", Category: "개인정보 수집 시 보호조치", Title: "수집 제한",
		Description:      "개인정보 최소 수집",
		RequirementText:  "개인정보는 서비스 제공에 필요한 최소한으로 수집하여야 한다.",
		ControlObjective: "필요 최소한의 개인정보만 수집한다"},
	{ItemCode: "3.1.2", Category: "개인정보 수집 시 보호조치", Title: "동의 획득",
		Description:      "정보주체 동의",
		RequirementText:  "개인정보 수집 시 정보주체의 동의를 받아야 한다.",
		ControlObjective: "개인정보 수집 시 동의를 받는다"},
	{ItemCode: "3.2.1", Category: "개인정보 보관 및 이용 시 보호조치", Title: "접근권한 제한",
		Description:      "개인정보 접근 제한",
		RequirementText:  "개인정보에 대한 접근권한을 업무 목적에 따라 최소한으로 제한하여야 한다.",
		ControlObjective: "개인정보 접근을 최소한으로 제한한다"},
	{ItemCode: "3.2.2", Category: "개인정보 보관 및 이용 시 보호조치", Title: "암호화",
		Description:      "개인정보 암호화",
		RequirementText:  "개인정보를 안전하게 저장·전송하기 위해 암호화하여야 한다.",
		ControlObjective: "개인정보를 암호화하여 저장하고 전송한다"},
	{ItemCode: "3.3.1", Category: "개인정보 제공 시 보호조치", Title: "제공 관리",
		Description:      "개인정보 제3자 제공",
		RequirementText:  "개인정보를 제3자에게 제공 시 법적 근거를 확보하고 정보주체에게 고지하여야 한다.",
		ControlObjective: "제3자 제공 시 법적 절차를 준수한다"},
	{ItemCode: "3.4.1", Category: "개인정보 파기 시 보호조치", Title: "파기 절차",
		Description:      "개인정보 안전한 파기",
		RequirementText:  "보유기간이 경과하거나 처리 목적이 달성된 개인정보는 안전하게 파기하여야 한다.",
		ControlObjective: "개인정보를 복구 불가능하게 파기한다"},
}

// Seed provisions the canonical catalog table and loads the sample
// catalog. Existing rows are kept (INSERT OR IGNORE), so re-running is
// safe and never overwrites caller data. Returns the number of rows in
// the catalog after seeding.
func (s *Store) Seed(ctx context.Context) (int, error) {
	if err := s.EnsureSchema(ctx); err != nil {
		return 0, err
	}
	if s.capability() == CapCompatView {
		return 0, NewValidationError("catalog is a read-only compatibility view; seeding is not possible")
	}

	err := s.withRetry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("seed: begin tx: %w", err)
		}
		defer tx.Rollback() // No-op if committed

		if _, err := tx.ExecContext(ctx, canonicalTableSQL); err != nil {
			return fmt.Errorf("seed: create catalog table: %w", err)
		}

		for _, req := range seedRequirements {
			_, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO `+catalogObject+`
				(item_code, category, title, description, requirement, control_objective)
				VALUES (?, ?, ?, ?, ?, ?)
			`, req.ItemCode, req.Category, req.Title, req.Description,
				req.RequirementText, req.ControlObjective)
			if err != nil {
				return fmt.Errorf("seed: insert %s: %w", req.ItemCode, err)
			}
		}

		return tx.Commit()
	})
	if err != nil {
		return 0, asStorageError(err, "seed catalog")
	}

	// The physical shape may have just changed from missing to canonical;
	// re-probe so the search index gets built over the new table.
	s.resetSchemaCache()
	if err := s.EnsureSchema(ctx); err != nil {
		return 0, err
	}

	count, err := s.CountRequirements(ctx, "")
	if err != nil {
		return 0, err
	}
	slog.Info("catalog seeded", "rows", count)
	return count, nil
}
