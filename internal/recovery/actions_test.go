package recovery_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/syncguard/internal/recovery"
)

var _ = Describe("builtin actions", func() {
	var (
		engine *recovery.Engine
		log    *slog.Logger
		env    recovery.Context
	)

	run := func(name string) (bool, error) {
		action, ok := engine.Action(name)
		Expect(ok).To(BeTrue(), "action %s should be registered", name)
		return action.Run(context.Background(), env, log)
	}

	BeforeEach(func() {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
		engine = recovery.NewEngine(log)
		env = recovery.Context{ServiceID: "icloud"}
	})

	Describe("refresh_credentials", func() {
		BeforeEach(func() {
			env.CredentialsDir = GinkgoT().TempDir()
		})

		It("should remove cached sessions and verify removal", func() {
			for _, name := range []string{"icloud.token", "web.session"} {
				Expect(os.WriteFile(filepath.Join(env.CredentialsDir, name), []byte("x"), 0o600)).To(Succeed())
			}

			effect, err := run("refresh_credentials")
			Expect(err).NotTo(HaveOccurred())
			Expect(effect).To(BeTrue())

			Expect(filepath.Join(env.CredentialsDir, "icloud.token")).NotTo(BeAnExistingFile())
		})

		It("should report no effect when there is nothing cached", func() {
			effect, err := run("refresh_credentials")
			Expect(err).NotTo(HaveOccurred())
			Expect(effect).To(BeFalse())
		})

		It("should be idempotent", func() {
			Expect(os.WriteFile(filepath.Join(env.CredentialsDir, "a.token"), []byte("x"), 0o600)).To(Succeed())

			effect, err := run("refresh_credentials")
			Expect(err).NotTo(HaveOccurred())
			Expect(effect).To(BeTrue())

			effect, err = run("refresh_credentials")
			Expect(err).NotTo(HaveOccurred())
			Expect(effect).To(BeFalse())
		})

		It("should not touch real credential files", func() {
			keep := filepath.Join(env.CredentialsDir, "service-account.json")
			Expect(os.WriteFile(keep, []byte("{}"), 0o600)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(env.CredentialsDir, "a.token"), []byte("x"), 0o600)).To(Succeed())

			_, err := run("refresh_credentials")
			Expect(err).NotTo(HaveOccurred())
			Expect(keep).To(BeAnExistingFile())
		})
	})

	Describe("reset_archives", func() {
		BeforeEach(func() {
			env.ArchiveDir = GinkgoT().TempDir()
		})

		It("should quarantine partial archives", func() {
			partial := filepath.Join(env.ArchiveDir, "docs.tar.partial")
			Expect(os.WriteFile(partial, []byte("x"), 0o644)).To(Succeed())

			effect, err := run("reset_archives")
			Expect(err).NotTo(HaveOccurred())
			Expect(effect).To(BeTrue())
			Expect(partial).NotTo(BeAnExistingFile())

			matches, err := filepath.Glob(filepath.Join(env.ArchiveDir, "quarantine", "*", "docs.tar.partial"))
			Expect(err).NotTo(HaveOccurred())
			Expect(matches).To(HaveLen(1))
		})

		It("should tolerate an empty archive directory", func() {
			effect, err := run("reset_archives")
			Expect(err).NotTo(HaveOccurred())
			Expect(effect).To(BeFalse())
		})

		It("should tolerate a missing archive directory", func() {
			env.ArchiveDir = filepath.Join(env.ArchiveDir, "never-created")
			effect, err := run("reset_archives")
			Expect(err).NotTo(HaveOccurred())
			Expect(effect).To(BeFalse())
		})
	})

	Describe("clear_stale_locks", func() {
		BeforeEach(func() {
			env.MountPath = GinkgoT().TempDir()
		})

		It("should remove locks older than the stale age", func() {
			lock := filepath.Join(env.MountPath, "library.lock")
			Expect(os.WriteFile(lock, []byte("x"), 0o644)).To(Succeed())
			old := time.Now().Add(-2 * time.Hour)
			Expect(os.Chtimes(lock, old, old)).To(Succeed())

			effect, err := run("clear_stale_locks")
			Expect(err).NotTo(HaveOccurred())
			Expect(effect).To(BeTrue())
			Expect(lock).NotTo(BeAnExistingFile())
		})

		It("should leave fresh locks alone", func() {
			lock := filepath.Join(env.MountPath, "library.lock")
			Expect(os.WriteFile(lock, []byte("x"), 0o644)).To(Succeed())

			effect, err := run("clear_stale_locks")
			Expect(err).NotTo(HaveOccurred())
			Expect(effect).To(BeFalse())
			Expect(lock).To(BeAnExistingFile())
		})
	})

	Describe("backup_conflicts", func() {
		BeforeEach(func() {
			env.MountPath = GinkgoT().TempDir()
			env.BackupDir = GinkgoT().TempDir()
		})

		It("should copy conflicted files into a stamped backup directory", func() {
			src := filepath.Join(env.MountPath, "notes (conflicted copy 2026-08-28).md")
			Expect(os.WriteFile(src, []byte("draft"), 0o644)).To(Succeed())

			effect, err := run("backup_conflicts")
			Expect(err).NotTo(HaveOccurred())
			Expect(effect).To(BeTrue())

			// Original stays in place; the provider daemon owns it.
			Expect(src).To(BeAnExistingFile())

			matches, err := filepath.Glob(filepath.Join(env.BackupDir, "*", "*conflicted*"))
			Expect(err).NotTo(HaveOccurred())
			Expect(matches).To(HaveLen(1))

			data, err := os.ReadFile(matches[0])
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("draft"))
		})

		It("should find conflicts in subdirectories", func() {
			sub := filepath.Join(env.MountPath, "projects")
			Expect(os.MkdirAll(sub, 0o755)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(sub, "plan.sync-conflict-1234.txt"), []byte("x"), 0o644)).To(Succeed())

			effect, err := run("backup_conflicts")
			Expect(err).NotTo(HaveOccurred())
			Expect(effect).To(BeTrue())
		})

		It("should report no effect on a clean tree", func() {
			Expect(os.WriteFile(filepath.Join(env.MountPath, "regular.txt"), []byte("x"), 0o644)).To(Succeed())

			effect, err := run("backup_conflicts")
			Expect(err).NotTo(HaveOccurred())
			Expect(effect).To(BeFalse())
		})
	})

	Describe("verify_mount", func() {
		It("should verify a writable directory", func() {
			env.MountPath = GinkgoT().TempDir()
			effect, err := run("verify_mount")
			Expect(err).NotTo(HaveOccurred())
			Expect(effect).To(BeTrue())
		})

		It("should report an unavailable mount without erroring", func() {
			env.MountPath = "/nonexistent/mount"
			effect, err := run("verify_mount")
			Expect(err).NotTo(HaveOccurred())
			Expect(effect).To(BeFalse())
		})
	})

	Describe("compress_logs", func() {
		BeforeEach(func() {
			env.LogDir = GinkgoT().TempDir()
		})

		It("should gzip aged logs and remove the originals", func() {
			logFile := filepath.Join(env.LogDir, "sync.log")
			Expect(os.WriteFile(logFile, []byte("old entries"), 0o644)).To(Succeed())
			old := time.Now().Add(-8 * 24 * time.Hour)
			Expect(os.Chtimes(logFile, old, old)).To(Succeed())

			effect, err := run("compress_logs")
			Expect(err).NotTo(HaveOccurred())
			Expect(effect).To(BeTrue())
			Expect(logFile).NotTo(BeAnExistingFile())
			Expect(logFile + ".gz").To(BeAnExistingFile())
		})

		It("should leave recent logs alone", func() {
			logFile := filepath.Join(env.LogDir, "sync.log")
			Expect(os.WriteFile(logFile, []byte("fresh"), 0o644)).To(Succeed())

			effect, err := run("compress_logs")
			Expect(err).NotTo(HaveOccurred())
			Expect(effect).To(BeFalse())
			Expect(logFile).To(BeAnExistingFile())
		})
	})

	Describe("cleanup_space", func() {
		BeforeEach(func() {
			env.CacheDir = GinkgoT().TempDir()
			env.SyncRoot = GinkgoT().TempDir()
		})

		It("should drop aged cache files", func() {
			aged := filepath.Join(env.CacheDir, "thumbnails.db")
			Expect(os.WriteFile(aged, []byte("x"), 0o644)).To(Succeed())
			old := time.Now().Add(-8 * 24 * time.Hour)
			Expect(os.Chtimes(aged, old, old)).To(Succeed())

			fresh := filepath.Join(env.CacheDir, "recent.db")
			Expect(os.WriteFile(fresh, []byte("x"), 0o644)).To(Succeed())

			_, err := run("cleanup_space")
			Expect(err).NotTo(HaveOccurred())
			Expect(aged).NotTo(BeAnExistingFile())
			Expect(fresh).To(BeAnExistingFile())
		})

		It("should report no effect with nothing configured", func() {
			env.CacheDir = ""
			env.SyncRoot = ""
			effect, err := run("cleanup_space")
			Expect(err).NotTo(HaveOccurred())
			Expect(effect).To(BeFalse())
		})
	})
})
