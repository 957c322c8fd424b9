package apperr

import (
	"fmt"
	"strings"
	"sync"
	"testing"
)

func TestList_Dedupes(t *testing.T) {
	var l List
	l.Add("a", " a ", "", "b")
	l.Add("b", "c")
	if got := strings.Join(l.Messages(), ","); got != "a,b,c" {
		t.Errorf("Messages() = %q, want a,b,c", got)
	}
	if (&List{}).Messages() == nil {
		t.Error("empty list should not be nil")
	}
}

func TestList_ConcurrentAdd(t *testing.T) {
	var l List
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				l.Add(fmt.Sprintf("provider-%d", j%10))
			}
		}(i)
	}
	wg.Wait()
	if got := len(l.Messages()); got != 10 {
		t.Errorf("len(Messages()) = %d, want 10", got)
	}
}
