package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

var (
	cInf  = color.New(color.FgCyan, color.Bold).SprintFunc()
	cWarn = color.New(color.FgYellow, color.Bold).SprintFunc()
	cErr  = color.New(color.FgRed, color.Bold).SprintFunc()
	cSucc = color.New(color.FgGreen, color.Bold).SprintFunc()
	cTime = color.New(color.FgHiBlack).SprintFunc()
)

var (
	outMu sync.Mutex
	out   io.Writer = os.Stdout
	errW  io.Writer = os.Stderr
)

func init() {
	log.SetFlags(0)
}

// SetOutput redirects both streams. Tests use it to capture or silence logs.
func SetOutput(w io.Writer) {
	outMu.Lock()
	defer outMu.Unlock()
	out = w
	errW = w
}

func timeStamp() string {
	return cTime(time.Now().Format("2006-01-02 15:04"))
}

func write(w func() io.Writer, tag, format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	outMu.Lock()
	defer outMu.Unlock()
	fmt.Fprintf(w(), "%s %s %s\n", timeStamp(), tag, msg)
}

func stdout() io.Writer { return out }
func stderr() io.Writer { return errW }

func LogInfo(format string, v ...interface{}) {
	write(stdout, cInf("[INFO]"), format, v...)
}

func LogSuccess(format string, v ...interface{}) {
	write(stdout, cSucc("[OK]"), format, v...)
}

func LogWarn(format string, v ...interface{}) {
	write(stdout, cWarn("[WARN]"), format, v...)
}

func LogError(format string, v ...interface{}) {
	write(stderr, cErr("[ERR]"), format, v...)
}

func LogServerStart(port int, baseURL string) {
	fmt.Println()
	fmt.Printf("   %s  %s\n", cSucc("⚡ Editor is Active"), cTime("open it in your browser"))
	fmt.Printf("   %s  %s\n", cInf("➜ Local:"), fmt.Sprintf("http://localhost:%d", port))
	fmt.Printf("   %s  %s\n", cInf("➜ Login:"), color.New(color.FgHiBlue, color.Underline).Sprint(baseURL+"/login"))
	fmt.Println()
}

// LogRaw writes an already formatted line, e.g. an access log entry.
func LogRaw(line string) {
	outMu.Lock()
	defer outMu.Unlock()
	fmt.Fprintln(out, line)
}
