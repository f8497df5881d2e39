//go:build linux

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

var promptHistory []string

// readInteractiveLine reads one line with basic editing on a raw terminal.
// Non-TTY stdin degrades to plain buffered reads.
func readInteractiveLine(prompt string) (string, error) {
	if !stdinIsTTY() {
		r := bufio.NewReader(os.Stdin)
		s, err := r.ReadString('\n')
		if err != nil && err != io.EOF {
			return "", err
		}
		return trimTrailingNewline(s), nil
	}

	fd := int(os.Stdin.Fd())
	saved, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return "", err
	}
	raw := *saved
	raw.Lflag &^= unix.ICANON | unix.ECHO
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &raw); err != nil {
		return "", err
	}
	defer func() {
		_ = unix.IoctlSetTermios(fd, unix.TCSETS, saved)
	}()

	fmt.Print(prompt)
	var (
		line    []byte
		cursor  int
		histPos = len(promptHistory)
		draft   string
		esc     strings.Builder
		inEsc   bool
		buf     [16]byte
	)

	redraw := func() {
		fmt.Printf("\r%s%s\x1b[K", prompt, string(line))
		if cursor < len(line) {
			fmt.Printf("\r%s%s", prompt, string(line[:cursor]))
		}
	}
	recall := func(pos int) {
		if pos == len(promptHistory) {
			line = append(line[:0], draft...)
		} else {
			line = append(line[:0], promptHistory[pos]...)
		}
		histPos = pos
		cursor = len(line)
		redraw()
	}

	for {
		n, err := os.Stdin.Read(buf[:])
		if err != nil {
			return "", err
		}
		for i := 0; i < n; i++ {
			b := buf[i]
			if inEsc {
				esc.WriteByte(b)
				seq := esc.String()
				if seq == "[" {
					continue
				}
				if !strings.HasPrefix(seq, "[") {
					inEsc = false
					continue
				}
				last := seq[len(seq)-1]
				if last != '~' && (last < 'A' || last > 'Z') {
					continue
				}
				inEsc = false
				switch seq {
				case "[A":
					if histPos > 0 {
						if histPos == len(promptHistory) {
							draft = string(line)
						}
						recall(histPos - 1)
					}
				case "[B":
					if histPos < len(promptHistory) {
						recall(histPos + 1)
					}
				case "[C":
					if cursor < len(line) {
						cursor++
						redraw()
					}
				case "[D":
					if cursor > 0 {
						cursor--
						redraw()
					}
				case "[H":
					cursor = 0
					redraw()
				case "[F":
					cursor = len(line)
					redraw()
				case "[3~":
					if cursor < len(line) {
						line = append(line[:cursor], line[cursor+1:]...)
						redraw()
					}
				}
				continue
			}

			switch b {
			case 27:
				inEsc = true
				esc.Reset()
			case '\r', '\n':
				fmt.Print("\r\n")
				out := string(line)
				if strings.TrimSpace(out) != "" {
					promptHistory = append(promptHistory, out)
				}
				return out, nil
			case 3: // Ctrl+C
				fmt.Print("^C\r\n")
				return "", io.EOF
			case 4: // Ctrl+D
				if len(line) == 0 {
					fmt.Print("\r\n")
					return "", io.EOF
				}
			case 127, 8: // backspace
				if cursor > 0 {
					line = append(line[:cursor-1], line[cursor:]...)
					cursor--
					redraw()
				}
			case 1: // Ctrl+A
				cursor = 0
				redraw()
			case 5: // Ctrl+E
				cursor = len(line)
				redraw()
			case 21: // Ctrl+U
				line = line[:0]
				cursor = 0
				redraw()
			default:
				if b >= 32 {
					line = append(line, 0)
					copy(line[cursor+1:], line[cursor:])
					line[cursor] = b
					cursor++
					redraw()
				}
			}
		}
	}
}

func trimTrailingNewline(s string) string {
	if len(s) > 0 && s[len(s)-1] == '\n' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '\r' {
		s = s[:len(s)-1]
	}
	return s
}
