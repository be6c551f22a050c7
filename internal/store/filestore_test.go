package store_test

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/syncguard/internal/circuitbreaker"
	"github.com/angeloszaimis/syncguard/internal/errclass"
	"github.com/angeloszaimis/syncguard/internal/store"
)

func TestStore(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Store Suite")
}

var _ = Describe("FileStore", func() {
	var (
		tempDir   string
		statePath string
		log       *slog.Logger
		fs        *store.FileStore
	)

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "store-test-*")
		Expect(err).NotTo(HaveOccurred())
		statePath = filepath.Join(tempDir, "circuits.yaml")
		log = slog.New(slog.NewTextHandler(io.Discard, nil))

		fs, err = store.NewFileStore(statePath, log)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tempDir)
	})

	Describe("Read", func() {
		It("should return a default closed record when the file is missing", func() {
			rec, err := fs.Read("icloud")
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.State).To(Equal(circuitbreaker.StateClosed))
			Expect(rec.FailureCount).To(Equal(0))
			Expect(rec.ServiceID).To(Equal("icloud"))
		})

		It("should fail closed on a corrupted file", func() {
			err := os.WriteFile(statePath, []byte("{{{ not yaml"), 0o644)
			Expect(err).NotTo(HaveOccurred())

			rec, err := fs.Read("icloud")
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.State).To(Equal(circuitbreaker.StateClosed))
			Expect(rec.FailureCount).To(Equal(0))
		})

		It("should return a previously written record", func() {
			_, err := fs.Update("google_drive", func(rec circuitbreaker.Record) circuitbreaker.Record {
				rec.State = circuitbreaker.StateOpen
				rec.FailureCount = 3
				rec.ErrorType = errclass.Quota
				return rec
			})
			Expect(err).NotTo(HaveOccurred())

			rec, err := fs.Read("google_drive")
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.State).To(Equal(circuitbreaker.StateOpen))
			Expect(rec.FailureCount).To(Equal(3))
			Expect(rec.ErrorType).To(Equal(errclass.Quota))
		})
	})

	Describe("Update", func() {
		It("should lazily create a default record for the closure", func() {
			var seen circuitbreaker.Record
			_, err := fs.Update("icloud", func(rec circuitbreaker.Record) circuitbreaker.Record {
				seen = rec
				return rec
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(seen.State).To(Equal(circuitbreaker.StateClosed))
			Expect(seen.ServiceID).To(Equal("icloud"))
		})

		It("should persist timestamps and survive reopening", func() {
			now := time.Now().UTC().Truncate(time.Second)
			_, err := fs.Update("icloud", func(rec circuitbreaker.Record) circuitbreaker.Record {
				rec.FailureCount = 1
				rec.LastFailureTime = &now
				rec.LastUpdated = now
				return rec
			})
			Expect(err).NotTo(HaveOccurred())

			reopened, err := store.NewFileStore(statePath, log)
			Expect(err).NotTo(HaveOccurred())

			rec, err := reopened.Read("icloud")
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.LastFailureTime).NotTo(BeNil())
			Expect(rec.LastFailureTime.Equal(now)).To(BeTrue())
		})

		It("should not disturb other services", func() {
			_, err := fs.Update("icloud", func(rec circuitbreaker.Record) circuitbreaker.Record {
				rec.FailureCount = 2
				return rec
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = fs.Update("google_drive", func(rec circuitbreaker.Record) circuitbreaker.Record {
				rec.FailureCount = 5
				return rec
			})
			Expect(err).NotTo(HaveOccurred())

			rec, err := fs.Read("icloud")
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.FailureCount).To(Equal(2))
		})

		It("should replace the file atomically, leaving no temp files behind", func() {
			_, err := fs.Update("icloud", func(rec circuitbreaker.Record) circuitbreaker.Record {
				return rec
			})
			Expect(err).NotTo(HaveOccurred())

			entries, err := os.ReadDir(tempDir)
			Expect(err).NotTo(HaveOccurred())

			names := []string{}
			for _, e := range entries {
				names = append(names, e.Name())
			}
			Expect(names).To(ConsistOf("circuits.yaml", "circuits.yaml.lock"))
		})
	})

	Describe("Delete", func() {
		It("should remove a record", func() {
			_, err := fs.Update("icloud", func(rec circuitbreaker.Record) circuitbreaker.Record {
				rec.FailureCount = 1
				return rec
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(fs.Delete("icloud")).To(Succeed())

			records, err := fs.List()
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(BeEmpty())
		})

		It("should tolerate deleting a missing record", func() {
			Expect(fs.Delete("never-seen")).To(Succeed())
		})
	})

	Describe("List", func() {
		It("should return records sorted by service id", func() {
			for _, id := range []string{"onedrive", "icloud", "google_drive"} {
				_, err := fs.Update(id, func(rec circuitbreaker.Record) circuitbreaker.Record {
					return rec
				})
				Expect(err).NotTo(HaveOccurred())
			}

			records, err := fs.List()
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(3))
			Expect(records[0].ServiceID).To(Equal("google_drive"))
			Expect(records[1].ServiceID).To(Equal("icloud"))
			Expect(records[2].ServiceID).To(Equal("onedrive"))
		})

		It("should return an empty list for a missing file", func() {
			records, err := fs.List()
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(BeEmpty())
		})
	})
})

var _ = Describe("MemoryStore", func() {
	var ms *store.MemoryStore

	BeforeEach(func() {
		ms = store.NewMemoryStore()
	})

	It("should return default records for unknown services", func() {
		rec, err := ms.Read("icloud")
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.State).To(Equal(circuitbreaker.StateClosed))
	})

	It("should apply updates", func() {
		_, err := ms.Update("icloud", func(rec circuitbreaker.Record) circuitbreaker.Record {
			rec.FailureCount = 4
			return rec
		})
		Expect(err).NotTo(HaveOccurred())

		rec, err := ms.Read("icloud")
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.FailureCount).To(Equal(4))
	})
})
