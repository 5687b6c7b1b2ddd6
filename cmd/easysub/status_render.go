package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiRed    = "\x1b[31m"
)

func (k statusKind) label() string {
	switch k {
	case statusOK:
		return "[OK]"
	case statusWarn:
		return "[WARN]"
	case statusError:
		return "[FAIL]"
	default:
		return "[--]"
	}
}

func (k statusKind) color() string {
	switch k {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	default:
		return ""
	}
}

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	tag := kind.label()
	if colorize {
		if color := kind.color(); color != "" {
			tag = color + tag + ansiReset
		}
	}
	line := fmt.Sprintf("  %-22s %s", label, tag)
	if message = strings.TrimSpace(message); message != "" {
		line += " " + message
	}
	return line
}

func renderSectionHeader(title string, colorize bool) string {
	if colorize {
		return "\x1b[1m" + title + ansiReset
	}
	return title
}

// shouldColorize enables ANSI colors only when writing to a terminal.
func shouldColorize(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
