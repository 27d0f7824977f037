package infra

import (
	"context"
	"fmt"

	"contest-gateway/engine/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormLedger grava vitórias num banco SQL via gorm.
//
// Cada Within é uma transação. AppendWin roda num savepoint: se a guarda do
// usuário falhar depois da do prêmio, o incremento do prêmio é desfeito.
type GormLedger struct {
	db *gorm.DB
}

func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{db: db}
}

func (l *GormLedger) Within(ctx context.Context, fn func(tx domain.LedgerTx) error) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(gormTx{db: tx})
	})
}

func (l *GormLedger) ListWins(ctx context.Context, prizeCode string, day domain.Day) ([]domain.WinRecord, error) {
	var rows []winRecordModel
	err := l.db.WithContext(ctx).
		Where("prize_code = ? AND day = ?", prizeCode, string(day)).
		Order("timestamp ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]domain.WinRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

type gormTx struct {
	db *gorm.DB
}

func (t gormTx) CountToday(ctx context.Context, prizeCode string, day domain.Day) (int, error) {
	var n int64
	err := t.db.WithContext(ctx).Model(&winRecordModel{}).
		Where("prize_code = ? AND day = ?", prizeCode, string(day)).
		Count(&n).Error
	return int(n), err
}

func (t gormTx) CountUserToday(ctx context.Context, userID string, day domain.Day) (int, error) {
	if userID == "" {
		return 0, nil
	}
	var n int64
	err := t.db.WithContext(ctx).Model(&winRecordModel{}).
		Where("user_id = ? AND day = ?", userID, string(day)).
		Count(&n).Error
	return int(n), err
}

func (t gormTx) AppendWin(ctx context.Context, rec domain.WinRecord, guard domain.Guard) (domain.WinRecord, error) {
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := bumpCounter(tx, domain.PrizeDayKey(rec.PrizeCode, rec.Day), guard.PrizeCap, true); err != nil {
			return err
		}
		if rec.UserID != "" {
			if err := bumpCounter(tx, domain.UserDayKey(rec.UserID, rec.Day), guard.UserCap, guard.UserCap > 0); err != nil {
				return err
			}
		}
		row := winRecordFromDomain(rec)
		return tx.Create(&row).Error
	})
	if err != nil {
		return domain.WinRecord{}, err
	}
	return rec, nil
}

func bumpCounter(tx *gorm.DB, key domain.Key, limit int, enforce bool) error {
	err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&dailyCounterModel{CounterKey: string(key)}).Error
	if err != nil {
		return fmt.Errorf("init counter %s: %w", key, err)
	}

	q := tx.Model(&dailyCounterModel{}).Where("counter_key = ?", string(key))
	if enforce {
		q = q.Where("wins < ?", limit)
	}
	res := q.Update("wins", gorm.Expr("wins + ?", 1))
	if res.Error != nil {
		return fmt.Errorf("bump counter %s: %w", key, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrCapReached
	}
	return nil
}

func winRecordFromDomain(rec domain.WinRecord) winRecordModel {
	row := winRecordModel{
		ID:          rec.ID,
		PrizeCode:   rec.PrizeCode,
		ContestCode: rec.ContestCode,
		Day:         string(rec.Day),
		Timestamp:   rec.Timestamp,
	}
	if rec.UserID != "" {
		uid := rec.UserID
		row.UserID = &uid
	}
	return row
}

func (m winRecordModel) toDomain() domain.WinRecord {
	rec := domain.WinRecord{
		ID:          m.ID,
		PrizeCode:   m.PrizeCode,
		ContestCode: m.ContestCode,
		Day:         domain.Day(m.Day),
		Timestamp:   m.Timestamp,
	}
	if m.UserID != nil {
		rec.UserID = *m.UserID
	}
	return rec
}
