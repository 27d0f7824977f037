package infra

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/logger"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type contestModel struct {
	Code      string `gorm:"primaryKey;size:64"`
	Name      string `gorm:"size:255;not null"`
	ValidFrom string `gorm:"size:10;not null;index:idx_contest_window,priority:1"`
	ValidTo   string `gorm:"size:10;not null;index:idx_contest_window,priority:2"`
}

func (contestModel) TableName() string { return "contests" }

type prizeModel struct {
	Code        string `gorm:"primaryKey;size:64"`
	Name        string `gorm:"size:255;not null"`
	ContestCode string `gorm:"size:64;not null;index"`
	PerDay      int    `gorm:"not null;default:0"`
	Position    int    `gorm:"not null;default:0"`
}

func (prizeModel) TableName() string { return "prizes" }

type winRecordModel struct {
	ID          string    `gorm:"primaryKey;size:36"`
	PrizeCode   string    `gorm:"size:64;not null;index:idx_win_prize_day,priority:1"`
	ContestCode string    `gorm:"size:64;not null"`
	UserID      *string   `gorm:"size:255;index:idx_win_user_day,priority:1"`
	Day         string    `gorm:"size:10;not null;index:idx_win_prize_day,priority:2;index:idx_win_user_day,priority:2"`
	Timestamp   time.Time `gorm:"not null;index"`
}

func (winRecordModel) TableName() string { return "win_records" }

// dailyCounterModel é a guarda entre processos: o update condicional
// "wins < teto" só passa para quem chegou primeiro.
type dailyCounterModel struct {
	CounterKey string `gorm:"primaryKey;size:320;column:counter_key"`
	Wins       int    `gorm:"not null;default:0"`
}

func (dailyCounterModel) TableName() string { return "daily_counters" }

// OpenDatabase abre o banco pelo driver ("sqlite" ou "mysql").
//
// Para sqlite o pool fica com uma conexão só: o arquivo aceita um escritor
// por vez e assim evitamos "database is locked".
func OpenDatabase(driver, dsn string, verbose bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "sqlite", "sqlite3", "":
		dialector = sqlite.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	level := gormlogger.Warn
	if verbose {
		level = gormlogger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(gormWriter{}, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if dialector.Name() == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Migrate cria ou atualiza as tabelas do catálogo e do ledger.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&contestModel{}, &prizeModel{}, &winRecordModel{}, &dailyCounterModel{})
}

// gormWriter manda o log do gorm para o google/logger.
type gormWriter struct{}

func (gormWriter) Printf(format string, args ...any) {
	logger.Infof(format, args...)
}
