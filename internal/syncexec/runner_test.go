package syncexec_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/syncguard/internal/syncexec"
)

func TestSyncexec(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Syncexec Suite")
}

var _ = Describe("Runner", func() {
	var (
		journal *syncexec.Journal
		runner  *syncexec.Runner
		log     *slog.Logger
	)

	BeforeEach(func() {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
		journal = syncexec.NewJournal(filepath.Join(GinkgoT().TempDir(), "journal.yaml"), log)
		runner = syncexec.NewRunner(journal, 5*time.Second, log)
	})

	Describe("Execute", func() {
		It("should capture exit status and combined output on success", func() {
			res := runner.Execute(context.Background(), "icloud", []string{"sh", "-c", "echo synced; echo warn >&2"})
			Expect(res.ExitStatus).To(Equal(0))
			Expect(res.Output).To(ContainSubstring("synced"))
			Expect(res.Output).To(ContainSubstring("warn"))
			Expect(res.Duration).To(BeNumerically(">", 0))
		})

		It("should capture a nonzero exit status", func() {
			res := runner.Execute(context.Background(), "icloud", []string{"sh", "-c", "echo quota exceeded; exit 3"})
			Expect(res.ExitStatus).To(Equal(3))
			Expect(res.Output).To(ContainSubstring("quota exceeded"))
		})

		It("should fold a missing binary into the result", func() {
			res := runner.Execute(context.Background(), "icloud", []string{"definitely-not-a-real-sync-tool"})
			Expect(res.ExitStatus).To(Equal(127))
			Expect(res.Output).NotTo(BeEmpty())
		})

		It("should fold an empty command into the result", func() {
			res := runner.Execute(context.Background(), "icloud", nil)
			Expect(res.ExitStatus).To(Equal(127))
			Expect(res.Output).To(ContainSubstring("no sync command"))
		})

		It("should kill a run that exceeds the timeout", func() {
			short := syncexec.NewRunner(journal, 100*time.Millisecond, log)
			res := short.Execute(context.Background(), "icloud", []string{"sleep", "10"})
			Expect(res.ExitStatus).To(Equal(-1))
			// 2x base on the first-ever run
			Expect(res.Duration).To(BeNumerically("<", 2*time.Second))
		})

		It("should respect an already-cancelled context", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			res := runner.Execute(ctx, "icloud", []string{"sleep", "10"})
			Expect(res.ExitStatus).NotTo(Equal(0))
		})
	})

	Describe("Timeout", func() {
		It("should double the base timeout for a first-ever sync", func() {
			Expect(runner.Timeout("never-synced")).To(Equal(10 * time.Second))
		})

		It("should return the base timeout after a normal run", func() {
			runner.Execute(context.Background(), "icloud", []string{"true"})
			Expect(runner.Timeout("icloud")).To(Equal(5 * time.Second))
		})

		It("should double the timeout after a timed-out run", func() {
			short := syncexec.NewRunner(journal, 50*time.Millisecond, log)
			short.Execute(context.Background(), "icloud", []string{"sleep", "10"})
			Expect(short.Timeout("icloud")).To(Equal(100 * time.Millisecond))
		})
	})
})

var _ = Describe("Journal", func() {
	var (
		path    string
		log     *slog.Logger
		journal *syncexec.Journal
	)

	BeforeEach(func() {
		path = filepath.Join(GinkgoT().TempDir(), "journal.yaml")
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
		journal = syncexec.NewJournal(path, log)
	})

	It("should report no history for an unknown service", func() {
		_, ok := journal.Last("icloud")
		Expect(ok).To(BeFalse())
	})

	It("should return the most recent entry", func() {
		journal.Record("icloud", syncexec.Entry{ExitStatus: 1})
		journal.Record("icloud", syncexec.Entry{ExitStatus: 0})

		last, ok := journal.Last("icloud")
		Expect(ok).To(BeTrue())
		Expect(last.ExitStatus).To(Equal(0))
	})

	It("should persist across instances", func() {
		journal.Record("icloud", syncexec.Entry{ExitStatus: 2, TimedOut: true})

		reopened := syncexec.NewJournal(path, log)
		last, ok := reopened.Last("icloud")
		Expect(ok).To(BeTrue())
		Expect(last.TimedOut).To(BeTrue())
	})

	It("should cap history depth", func() {
		for i := 0; i < 40; i++ {
			journal.Record("icloud", syncexec.Entry{ExitStatus: i})
		}
		last, ok := journal.Last("icloud")
		Expect(ok).To(BeTrue())
		Expect(last.ExitStatus).To(Equal(39))
	})

	It("should survive a corrupted journal file", func() {
		journal.Record("icloud", syncexec.Entry{ExitStatus: 0})
		Expect(os.WriteFile(path, []byte("{{{ not yaml"), 0o644)).To(Succeed())

		_, ok := journal.Last("icloud")
		Expect(ok).To(BeFalse())

		// Recording again repairs the file.
		journal.Record("icloud", syncexec.Entry{ExitStatus: 1})
		last, ok := journal.Last("icloud")
		Expect(ok).To(BeTrue())
		Expect(last.ExitStatus).To(Equal(1))
	})
})
