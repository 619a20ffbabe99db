package spinner

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

const Interval = 100 * time.Millisecond

var chars = []rune{'|', '/', '-', '\\'}

// Start animates "<label> |" on w until ctx is cancelled or the returned stop
// is called. stop clears the line and returns once the animation has
// finished; calling it again is a no-op.
func Start(ctx context.Context, w io.Writer, label string) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(Interval)
		defer ticker.Stop()

		i := 0
		for {
			fmt.Fprintf(w, "\r%s %c", label, chars[i%len(chars)])
			i++
			select {
			case <-ctx.Done():
				// clear spinner line
				fmt.Fprint(w, "\r\033[K")
				return
			case <-ticker.C:
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}
