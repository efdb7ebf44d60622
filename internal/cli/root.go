// Package cli 提供 habitctl 命令行：查看周期、重算罚款、重建年度进度与写入示例数据。
package cli

import (
	"context"
	"io"
	"time"

	applog "github.com/habitlog/internal/log"
	"github.com/habitlog/internal/period"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// App 为各子命令提供共享依赖
type App struct {
	DB       *gorm.DB
	Logger   *applog.Logger
	Location *time.Location
	Out      io.Writer
	Now      func() time.Time
}

func (a *App) context() context.Context {
	logger := a.Logger
	if logger == nil {
		logger = applog.Discard()
	}
	return applog.IntoContext(context.Background(), logger.WithComponent(applog.ComponentCLI))
}

func (a *App) today() time.Time {
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	loc := a.Location
	if loc == nil {
		loc = time.Local
	}
	return period.Day(now().In(loc))
}

// NewRootCmd 构造 habitctl 根命令
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "habitctl",
		Short:         "Habit tracker maintenance tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(app.Out)

	root.AddCommand(
		newPeriodsCmd(app),
		newRecomputeFinesCmd(app),
		newRebuildProgressCmd(app),
		newSeedCmd(app),
	)

	return root
}
