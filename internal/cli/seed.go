package cli

import (
	"errors"
	"fmt"

	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/habitcalc"
	"github.com/habitlog/internal/period"
	"github.com/habitlog/internal/service"
	"github.com/spf13/cobra"
)

var seedHabits = []service.HabitInput{
	{
		Name:           "Smoking",
		Color:          "#ef4444",
		TrackingValues: []string{"Yes", "No"},
		FrequencyConditions: []habitcalc.FrequencyCondition{
			{TrackingValue: "Yes", Frequency: period.Weekly, Count: 2},
		},
		FineAmount: 50,
	},
	{
		Name:           "Exercise",
		Color:          "#22c55e",
		TrackingValues: []string{"Done", "Skipped"},
		FrequencyConditions: []habitcalc.FrequencyCondition{
			{TrackingValue: "Skipped", Frequency: period.Monthly, Count: 8},
		},
		FineAmount:                20,
		YearlyGoal:                habitcalc.YearlyGoal{Count: 200, ContributingValues: []string{"Done"}},
		AllowedOutOfControlMisses: 5,
	},
	{
		Name:     "Gratitude",
		Color:    "#a855f7",
		Kind:     db.HabitKindFreeText,
		HintText: "今天感谢的一件事",
	},
}

var seedNotes = []string{
	"早起散步，**天气很好**。",
	"工作有点累，晚上早点睡。",
	"和朋友吃饭，聊得很开心。",
	"读完了一本书的最后几章。",
	"- 跑步 5km\n- 拉伸 10 分钟",
}

func newSeedCmd(app *App) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert demo habits, tracking records and journal entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days <= 0 {
				return errors.New("--days must be positive")
			}

			ctx := app.context()
			out := cmd.OutOrStdout()
			habitSvc := service.NewHabitService(app.DB)

			existing, err := habitSvc.List(ctx, service.HabitFilter{})
			if err != nil {
				return err
			}
			if len(existing) > 0 {
				fmt.Fprintln(out, "习惯已存在，跳过示例数据")
				return nil
			}

			habits := make([]*db.Habit, 0, len(seedHabits))
			for _, input := range seedHabits {
				habit, err := habitSvc.Create(ctx, input)
				if err != nil {
					return fmt.Errorf("create habit %s: %w", input.Name, err)
				}
				habits = append(habits, habit)
			}
			fmt.Fprintf(out, "✅ 创建习惯 %d 个\n", len(habits))

			tracking := service.NewTrackingService(app.DB)
			journal := service.NewJournalService(app.DB)
			today := app.today()
			start := today.AddDate(0, 0, -(days - 1))

			records := 0
			for i := 0; i < days; i++ {
				day := start.AddDate(0, 0, i)
				for _, habit := range habits {
					if !habit.IsTracking() {
						if i%2 == 0 {
							if _, err := tracking.SetText(ctx, habit.ID, day, seedNotes[i%len(seedNotes)]); err != nil {
								return err
							}
							records++
						}
						continue
					}
					value := seedValue(habit.TrackingValues, i)
					if value == "" {
						continue
					}
					if _, err := tracking.SetValue(ctx, habit.ID, day, &value); err != nil {
						return err
					}
					records++
				}

				if i%3 == 0 {
					input := service.JournalInput{Content: seedNotes[i%len(seedNotes)], Mood: i%5 + 1}
					if _, err := journal.Upsert(ctx, period.FormatDate(day), input); err != nil {
						return err
					}
				}
			}
			fmt.Fprintf(out, "✅ 写入追踪记录 %d 条\n", records)

			result, err := service.NewFineService(app.DB).Recompute(ctx, today.Year(), today)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "✅ 生成罚款 %d 条\n", len(result.Fines))
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "Number of days to fill, ending today")
	return cmd
}

// seedValue 按天序号轮换追踪值，每 7 天留空一天
func seedValue(values []string, i int) string {
	if len(values) == 0 || i%7 == 6 {
		return ""
	}
	return values[(i*i+i/3)%len(values)]
}
