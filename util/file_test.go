package util_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/avrix/launcher/util"
)

var _ = Describe("Settings file", func() {

	var (
		tmpDir string
	)

	type TestConfig struct {
		SomeMap   map[string]string
		SomeArray []string
		SomeField int
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "avrix_util_test_tmp_*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		err := os.RemoveAll(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Config", func() {
		Context("in JSON format", func() {
			It("should be written and read successfully", func() {
				arr := []string{"value1", "value2"}
				written := &TestConfig{
					SomeMap:   map[string]string{"key1": "value1", "key2": "value2"},
					SomeArray: arr,
					SomeField: 99,
				}

				file := filepath.Join(tmpDir, "testconfig.json")
				err := util.WriteJson(context.Background(), file, written)
				Expect(err).NotTo(HaveOccurred())

				read, err := util.ReadJson(file, &TestConfig{})
				Expect(err).NotTo(HaveOccurred())
				Expect(read).NotTo(BeNil())
				Expect(read.(*TestConfig).SomeMap["key1"]).To(BeEquivalentTo("value1"))
				Expect(read.(*TestConfig).SomeMap["key2"]).To(BeEquivalentTo("value2"))
				Expect(read.(*TestConfig).SomeArray).To(ContainElements(arr))
				Expect(read.(*TestConfig).SomeField).To(BeEquivalentTo(99))
			})

			It("should create missing parent directories", func() {
				file := filepath.Join(tmpDir, "nested", "dir", "settings.json")
				err := util.WriteJson(context.Background(), file, &TestConfig{SomeField: 1})
				Expect(err).NotTo(HaveOccurred())
				Expect(util.FileExists(file)).To(BeTrue())
			})

			It("should not leave temporary files behind", func() {
				file := filepath.Join(tmpDir, "settings.json")
				Expect(util.WriteJson(context.Background(), file, &TestConfig{SomeField: 1})).To(Succeed())
				Expect(util.WriteJson(context.Background(), file, &TestConfig{SomeField: 2})).To(Succeed())

				entries, err := os.ReadDir(tmpDir)
				Expect(err).NotTo(HaveOccurred())
				Expect(entries).To(HaveLen(1))
			})

			It("should refuse to write with a cancelled context", func() {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()

				file := filepath.Join(tmpDir, "settings.json")
				err := util.WriteJson(ctx, file, &TestConfig{})
				Expect(err).To(HaveOccurred())
				Expect(util.FileExists(file)).To(BeFalse())
			})
		})
	})

	Describe("Removing a JSON file", func() {
		It("should ignore missing files", func() {
			Expect(util.RemoveJson(filepath.Join(tmpDir, "missing.json"))).To(Succeed())
		})
	})
})
