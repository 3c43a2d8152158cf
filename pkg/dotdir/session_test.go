package dotdir_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/switchboard/pkg/dotdir"
)

var _ = Describe("dotdir.Manager session", func() {
	var tmpDir string
	var m *dotdir.Manager

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "dotdir-test-*")
		Expect(err).NotTo(HaveOccurred())
		m = dotdir.NewManager()
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("LoadSession", func() {
		It("returns nil when no session file exists", func() {
			state, err := m.LoadSession(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(BeNil())
		})

		It("loads a valid session", func() {
			data := `{"thread_id":"thread_abc","target":"http://localhost:8080","updated_at":"2026-01-02T03:04:05Z"}`
			Expect(os.WriteFile(filepath.Join(tmpDir, "session.json"), []byte(data), 0o600)).To(Succeed())

			state, err := m.LoadSession(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(state.ThreadID).To(Equal("thread_abc"))
			Expect(state.Target).To(Equal("http://localhost:8080"))
			Expect(state.UpdatedAt.Year()).To(Equal(2026))
		})

		It("returns error for invalid JSON", func() {
			Expect(os.WriteFile(filepath.Join(tmpDir, "session.json"), []byte("not json"), 0o600)).To(Succeed())

			state, err := m.LoadSession(tmpDir)
			Expect(err).To(HaveOccurred())
			Expect(state).To(BeNil())
		})
	})

	Describe("SaveSession", func() {
		It("round trips through LoadSession", func() {
			now := time.Now().UTC().Truncate(time.Second)
			Expect(m.SaveSession(&dotdir.SessionState{ThreadID: "thread_1", UpdatedAt: now}, tmpDir)).To(Succeed())

			state, err := m.LoadSession(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(state.ThreadID).To(Equal("thread_1"))
			Expect(state.UpdatedAt).To(BeTemporally("==", now))
		})

		It("rejects a nil state", func() {
			Expect(m.SaveSession(nil, tmpDir)).To(MatchError(ContainSubstring("nil session")))
		})
	})

	Describe("ClearSession", func() {
		It("removes the session file", func() {
			Expect(m.SaveSession(&dotdir.SessionState{ThreadID: "thread_1"}, tmpDir)).To(Succeed())
			Expect(m.ClearSession(tmpDir)).To(Succeed())
			Expect(filepath.Join(tmpDir, "session.json")).NotTo(BeAnExistingFile())
		})

		It("is a no-op when no session exists", func() {
			Expect(m.ClearSession(tmpDir)).To(Succeed())
		})
	})
})
