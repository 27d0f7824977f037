package infra

import (
	"context"
	"errors"

	"contest-gateway/engine/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCatalog lê concursos e prêmios das tabelas contests/prizes.
type GormCatalog struct {
	db *gorm.DB
}

func NewGormCatalog(db *gorm.DB) *GormCatalog {
	return &GormCatalog{db: db}
}

func (c *GormCatalog) GetContest(ctx context.Context, code string) (domain.Contest, error) {
	var row contestModel
	err := c.db.WithContext(ctx).Where("code = ?", code).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Contest{}, domain.ErrContestNotFound
	}
	if err != nil {
		return domain.Contest{}, err
	}
	return row.toDomain(), nil
}

// PrizesOf devolve os prêmios na ordem em que foram cadastrados.
func (c *GormCatalog) PrizesOf(ctx context.Context, contestCode string) ([]domain.Prize, error) {
	var rows []prizeModel
	err := c.db.WithContext(ctx).
		Where("contest_code = ?", contestCode).
		Order("position ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]domain.Prize, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (c *GormCatalog) CountActive(ctx context.Context, day domain.Day) (int, error) {
	var n int64
	err := c.db.WithContext(ctx).Model(&contestModel{}).
		Where("valid_from <= ? AND valid_to >= ?", string(day), string(day)).
		Count(&n).Error
	return int(n), err
}

func (c *GormCatalog) PutContest(ctx context.Context, contest domain.Contest, prizes []domain.Prize) error {
	normalized, err := normalizeContest(contest, prizes)
	if err != nil {
		return err
	}

	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(normalized) > 0 {
			codes := make([]string, 0, len(normalized))
			for _, p := range normalized {
				codes = append(codes, p.Code)
			}
			var taken []prizeModel
			err := tx.Where("code IN ? AND contest_code <> ?", codes, contest.Code).Find(&taken).Error
			if err != nil {
				return err
			}
			if len(taken) > 0 {
				return prizeOwnedError(taken[0].Code, taken[0].ContestCode)
			}
		}

		row := contestModel{
			Code:      contest.Code,
			Name:      contest.Name,
			ValidFrom: string(contest.ValidFrom),
			ValidTo:   string(contest.ValidTo),
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "valid_from", "valid_to"}),
		}).Create(&row).Error
		if err != nil {
			return err
		}

		if err := tx.Where("contest_code = ?", contest.Code).Delete(&prizeModel{}).Error; err != nil {
			return err
		}
		if len(normalized) == 0 {
			return nil
		}

		rows := make([]prizeModel, 0, len(normalized))
		for i, p := range normalized {
			rows = append(rows, prizeModel{
				Code:        p.Code,
				Name:        p.Name,
				ContestCode: contest.Code,
				PerDay:      p.PerDay,
				Position:    i,
			})
		}
		return tx.Create(&rows).Error
	})
}

func (m contestModel) toDomain() domain.Contest {
	return domain.Contest{
		Code:      m.Code,
		Name:      m.Name,
		ValidFrom: domain.Day(m.ValidFrom),
		ValidTo:   domain.Day(m.ValidTo),
	}
}

func (m prizeModel) toDomain() domain.Prize {
	return domain.Prize{
		Code:        m.Code,
		Name:        m.Name,
		ContestCode: m.ContestCode,
		PerDay:      m.PerDay,
	}
}
