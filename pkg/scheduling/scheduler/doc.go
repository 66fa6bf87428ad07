/*
Package scheduler repeats a job on a cron schedule.

Expressions use the standard five fields, an optional leading seconds
field, or a descriptor:

	"30 * * * * *"     at second 30 of every minute
	"0 9 * * 1-5"      09:00 on weekdays
	"@every 5m"        every five minutes
	"@hourly"          at minute 0 of every hour

Repeat blocks until the requested number of runs has completed, the job
fails, or the context ends:

	err := scheduler.Repeat(ctx, "@every 1m", 10, func(ctx context.Context, run int) error {
		report, err := runner.Run(ctx)
		if err != nil {
			return err
		}
		_, err = report.WriteTo(os.Stdout)
		return err
	})

Runs never overlap. A firing that arrives while the previous run is still
in progress is skipped and logged at debug level.
*/
package scheduler
