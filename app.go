package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"voicedesk/internal/bootstrap"
	"voicedesk/internal/config"
	"voicedesk/internal/domain"
	"voicedesk/internal/ports"
	"voicedesk/internal/usecase"
)

// App is the console front-end: it renders recorder state and transcripts,
// reads commands from the terminal, and hands final text to the assistant.
type App struct {
	out    io.Writer
	logger *log.Logger

	recorder  *usecase.Recorder
	assistant ports.Assistant
	cfg       config.Config

	mu sync.Mutex
}

func NewApp(out io.Writer, logger *log.Logger) *App {
	return &App{out: out, logger: logger}
}

func (a *App) attach(services bootstrap.Services) {
	a.recorder = services.Recorder
	a.assistant = services.Assistant
	a.cfg = services.Config
}

// Run reads commands until the input closes or the context is cancelled.
func (a *App) Run(ctx context.Context, in io.Reader) error {
	a.println("voicedesk ready: /record toggles the microphone, /send submits the transcript, /quit exits")

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/q":
			_ = a.recorder.Stop()
			return nil
		case line == "/record" || line == "/r":
			if err := a.recorder.Toggle(ctx); err != nil {
				a.logger.Printf("app: toggle failed: %v", err)
			}
		case line == "/send" || line == "/s":
			a.submit(ctx, a.recorder.TakeTranscript())
		default:
			a.submit(ctx, line)
		}
	}

	_ = a.recorder.Stop()
	return scanner.Err()
}

func (a *App) submit(ctx context.Context, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		a.println("nothing to send")
		return
	}
	if a.assistant == nil {
		a.println("assistant is not configured (set OPENAI_API_KEY)")
		return
	}

	a.printf("you: %s\n", text)
	a.printf("assistant: ")
	_, err := a.assistant.Submit(ctx, text, func(delta string) {
		a.printf("%s", delta)
	})
	a.printf("\n")
	if err != nil {
		a.printf("! chat failed: %v\n", err)
	}
}

// RecorderStateChanged implements ports.EventSink.
func (a *App) RecorderStateChanged(state domain.RecorderState) {
	switch {
	case state.IsConnecting:
		a.println("… connecting")
	case state.IsRecording:
		a.println("● recording")
	default:
		a.println("○ idle")
	}
}

// PartialTranscript implements ports.EventSink. Partials overwrite the
// current line; the next partial for the utterance supersedes it.
func (a *App) PartialTranscript(text string) {
	a.printf("\r~ %s", text)
}

// FinalTranscript implements ports.EventSink.
func (a *App) FinalTranscript(text string) {
	a.printf("\r» %s\n", text)
}

// RecorderError implements ports.EventSink.
func (a *App) RecorderError(kind domain.ErrorKind, detail string) {
	a.printf("! %s: %s\n", errorMessage(kind), detail)
}

func (a *App) println(msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprintln(a.out, msg)
}

func (a *App) printf(format string, args ...any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprintf(a.out, format, args...)
}

// errorMessage maps the error taxonomy to the user-facing message.
func errorMessage(kind domain.ErrorKind) string {
	switch kind {
	case domain.ErrorDevice:
		return "Microphone unavailable"
	case domain.ErrorAuth:
		return "Transcription authorization failed"
	case domain.ErrorNetwork:
		return "Transcription connection failed"
	case domain.ErrorTransport:
		return "Audio streaming issue"
	default:
		return "Unknown error"
	}
}
