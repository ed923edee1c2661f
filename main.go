package main

import (
	"embed"
	"log/slog"

	"github.com/wailsapp/wails/v3/pkg/application"
	"github.com/wailsapp/wails/v3/pkg/events"

	"github.com/meetscribe/meetscribe/internal/app"
)

//go:embed all:frontend/dist
var assets embed.FS

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	slog.Info("starting app", "version", version, "commit", commit, "date", date)
	appService := app.New(version)

	wailsApp := application.New(application.Options{
		Name:        "MeetScribe",
		Description: "Offline live captions for your microphone",
		Services: []application.Service{
			application.NewService(appService),
		},
		Assets: application.AssetOptions{
			Handler: application.BundledAssetFileServer(assets),
		},
		Mac: application.MacOptions{
			// Don't quit when all windows are closed (we have a system tray)
			ApplicationShouldTerminateAfterLastWindowClosed: false,
		},
	})

	mainWindow := wailsApp.Window.NewWithOptions(application.WebviewWindowOptions{
		Title:  "MeetScribe",
		Width:  900,
		Height: 640,
		URL:    "/",
		Mac: application.MacWindow{
			TitleBar:                application.MacTitleBarHiddenInsetUnified,
			InvisibleTitleBarHeight: 38,
		},
		DevToolsEnabled: true,
	})

	// Intercept window close: hide instead of destroy so tray can reopen
	mainWindow.RegisterHook(events.Common.WindowClosing, func(e *application.WindowEvent) {
		e.Cancel()
		mainWindow.Hide()
	})

	appService.Init(wailsApp, mainWindow)

	systemTray := wailsApp.SystemTray.New()
	systemTray.SetLabel("MeetScribe")

	trayMenu := wailsApp.NewMenu()
	trayMenu.Add("Show Window").OnClick(func(ctx *application.Context) {
		mainWindow.Show()
		mainWindow.Focus()
	})
	trayMenu.Add("Start Captions").
		SetAccelerator("CmdOrCtrl+Shift+Space").
		OnClick(func(ctx *application.Context) {
			if err := appService.StartTranscription(); err != nil {
				slog.Error("start from tray", "error", err)
			}
		})
	trayMenu.Add("Stop Captions").OnClick(func(ctx *application.Context) {
		if err := appService.StopTranscription(); err != nil {
			slog.Error("stop from tray", "error", err)
		}
	})

	// Language submenu with radio buttons
	languageMenu := trayMenu.AddSubmenu("Language")
	for _, m := range appService.GetModels() {
		lang := m.Language
		active := lang == appService.GetConfig().ModelLanguage
		languageMenu.AddRadio(lang, active).OnClick(func(ctx *application.Context) {
			if err := appService.SetModelLanguage(lang); err != nil {
				slog.Error("set language", "error", err)
			}
		})
	}

	trayMenu.AddSeparator()
	trayMenu.Add("Quit").
		SetAccelerator("CmdOrCtrl+Q").
		OnClick(func(ctx *application.Context) {
			appService.Shutdown()
			wailsApp.Quit()
		})

	systemTray.SetMenu(trayMenu)

	if err := wailsApp.Run(); err != nil {
		slog.Error("run app", "error", err)
	}
}
