package engine

import (
	"fmt"
	"time"

	"github.com/verte-zerg/speedtype/internal/model"
)

// ShareText returns the brag line for a result.
func ShareText(r model.TestResult) string {
	return fmt.Sprintf("I just typed %d WPM (%d Net WPM) with %d%% accuracy on the Typing Speed Tester! Can you beat my score?",
		r.WPM, r.NetWPM, r.Accuracy)
}

// ExportFileName returns the default file name for a history export made at t.
func ExportFileName(t time.Time) string {
	return "typing-test-history-" + t.Format("2006-01-02") + ".json"
}
