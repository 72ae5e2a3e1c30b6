package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/urfave/cli"

	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/buildinfo"
	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/domain"
)

func main() {
	app := cli.App{
		Name:      "taw",
		HelpName:  "taw",
		Usage:     "control the twitch AFK watcher daemon",
		UsageText: "taw [--server URL] <command> [arguments...]",
		Version:   buildinfo.Version,
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:   "server",
				Usage:  "daemon base URL",
				EnvVar: "TAW_SERVER_URL",
				Value:  "http://127.0.0.1:8080",
			},
		},
		Commands: []cli.Command{
			{
				Name:      "watch",
				Usage:     "start watching a channel now",
				ArgsUsage: "<channel>",
				Flags: []cli.Flag{
					cli.StringFlag{Name: "quality, q", Usage: "stream quality (best, worst, audio_only, ...)"},
				},
				Action: watch,
			},
			{
				Name:   "stop",
				Usage:  "stop the current watch session",
				Action: stop,
			},
			{
				Name:   "status",
				Usage:  "show the active session and the last failure",
				Action: status,
			},
			{
				Name:  "schedule",
				Usage: "manage the daily watch slot",
				Subcommands: []cli.Command{
					{
						Name:      "set",
						Usage:     "arm the daily slot",
						ArgsUsage: "<HH:MM> <channel>",
						Flags: []cli.Flag{
							cli.StringFlag{Name: "quality, q", Usage: "stream quality"},
						},
						Action: scheduleSet,
					},
					{
						Name:   "show",
						Usage:  "show the armed slot and its next run",
						Action: scheduleShow,
					},
					{
						Name:   "clear",
						Usage:  "disarm the daily slot",
						Action: scheduleClear,
					},
				},
			},
			{
				Name:  "sessions",
				Usage: "show the watch history",
				Flags: []cli.Flag{
					cli.IntFlag{Name: "limit, n", Usage: "max sessions to return", Value: 20},
				},
				Action: sessions,
			},
			{
				Name:  "settings",
				Usage: "show or update the daemon settings",
				Flags: []cli.Flag{
					cli.StringFlag{Name: "cookies", Usage: "path to the NETSCAPE cookie jar"},
					cli.StringFlag{Name: "player", Usage: "external player binary"},
					cli.StringFlag{Name: "quality", Usage: "default stream quality"},
					cli.StringFlag{Name: "low-resource", Usage: "audio-only AFK profile (true/false)"},
					cli.IntFlag{Name: "stream-retries", Usage: "streamlink --retry-streams"},
					cli.IntFlag{Name: "retry-count", Usage: "supervisor relaunch attempts"},
					cli.IntFlag{Name: "retry-delay", Usage: "seconds between relaunch attempts"},
					cli.StringFlag{Name: "schedule-time", Usage: "default HH:MM for schedule set"},
				},
				Action: settings,
			},
			{
				Name:   "cookies",
				Usage:  "preflight the configured cookie jar",
				Action: cookiesCheck,
			},
			{
				Name:   "health",
				Usage:  "ping the daemon",
				Action: health,
			},
			{
				Name:   "version",
				Usage:  "show the daemon build info",
				Action: version,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "taw: %s\n", err.Error())
		os.Exit(1)
	}
}

func apiClient(ctx *cli.Context) *client {
	return newClient(ctx.GlobalString("server"))
}

func watch(ctx *cli.Context) error {
	channel := ctx.Args().First()
	if channel == "" {
		return fmt.Errorf("usage: taw watch <channel>")
	}
	body := map[string]string{"channel": channel}
	if q := ctx.String("quality"); q != "" {
		body["quality"] = q
	}
	return apiClient(ctx).do("POST", "/api/v1/watch", body)
}

func stop(ctx *cli.Context) error {
	return apiClient(ctx).do("POST", "/api/v1/watch/stop", nil)
}

func status(ctx *cli.Context) error {
	return apiClient(ctx).get("/api/v1/watch")
}

func scheduleSet(ctx *cli.Context) error {
	timeOfDay := ctx.Args().Get(0)
	channel := ctx.Args().Get(1)
	if timeOfDay == "" || channel == "" {
		return fmt.Errorf("usage: taw schedule set <HH:MM> <channel>")
	}
	body := map[string]any{
		"timeOfDay": timeOfDay,
		"channel":   channel,
		"enabled":   true,
	}
	if q := ctx.String("quality"); q != "" {
		body["quality"] = q
	}
	return apiClient(ctx).do("PUT", "/api/v1/schedule", body)
}

func scheduleShow(ctx *cli.Context) error {
	return apiClient(ctx).get("/api/v1/schedule")
}

func scheduleClear(ctx *cli.Context) error {
	return apiClient(ctx).do("DELETE", "/api/v1/schedule", nil)
}

func sessions(ctx *cli.Context) error {
	return apiClient(ctx).get("/api/v1/sessions?limit=" + strconv.Itoa(ctx.Int("limit")))
}

// settings fait un read-modify-write: seuls les flags passés changent.
func settings(ctx *cli.Context) error {
	c := apiClient(ctx)
	if ctx.NumFlags() == 0 {
		return c.get("/api/v1/settings")
	}

	var s domain.Settings
	if err := c.getJSON("/api/v1/settings", &s); err != nil {
		return err
	}
	if v := ctx.String("cookies"); v != "" {
		s.CookieFile = v
	}
	if v := ctx.String("player"); v != "" {
		s.Player = v
	}
	if v := ctx.String("quality"); v != "" {
		s.Quality = v
	}
	if v := ctx.String("low-resource"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid --low-resource value %q", v)
		}
		s.LowResource = b
	}
	if v := ctx.Int("stream-retries"); v > 0 {
		s.StreamRetries = v
	}
	if ctx.IsSet("retry-count") {
		s.RetryCount = ctx.Int("retry-count")
	}
	if v := ctx.Int("retry-delay"); v > 0 {
		s.RetryDelaySeconds = v
	}
	if v := ctx.String("schedule-time"); v != "" {
		s.DefaultScheduleTime = v
	}
	return c.do("PUT", "/api/v1/settings", s)
}

func cookiesCheck(ctx *cli.Context) error {
	return apiClient(ctx).get("/api/v1/cookies/check")
}

func health(ctx *cli.Context) error {
	return apiClient(ctx).get("/api/v1/health")
}

func version(ctx *cli.Context) error {
	return apiClient(ctx).get("/api/v1/version")
}
