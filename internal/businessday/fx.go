package businessday

import (
	"fmt"
	"time"

	"github.com/domaehub/settle/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("businessday",
	fx.Provide(ProvideCalculator),
)

type Params struct {
	fx.In

	Cfg config.Config
	DB  *gorm.DB
	Log *zap.Logger
}

// ProvideCalculator builds the calculator from the configured timezone
// and the seeded holiday table, falling back to the build-time lunar
// table when the database has no rows yet.
func ProvideCalculator(p Params) (*Calculator, error) {
	loc, err := time.LoadLocation(p.Cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", p.Cfg.Timezone, err)
	}

	cal := NewCalendar(DefaultLunarTable())

	type holidayRow struct {
		Year  int
		Month int
		Day   int
	}
	var rows []holidayRow
	err = p.DB.Raw(
		`SELECT year, month, day FROM calendar_holidays WHERE kind = ?`,
		"lunar",
	).Scan(&rows).Error
	if err != nil {
		p.Log.Named("businessday").Warn("holiday table unavailable, using built-in lunar table", zap.Error(err))
	}
	for _, row := range rows {
		cal.AddLunar(row.Year, Date{Year: row.Year, Month: time.Month(row.Month), Day: row.Day})
	}

	return NewCalculator(loc, cal), nil
}
