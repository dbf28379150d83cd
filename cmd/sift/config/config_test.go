package configcmder_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	configcmder "github.com/cardinalpay/sift/cmd/sift/config"
)

var _ = Describe("NewConfigCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := configcmder.NewConfigCmd()
		Expect(cmd.Use).To(Equal("config"))
	})

	It("has set, get, and list subcommands", func() {
		cmd := configcmder.NewConfigCmd()
		cmds := cmd.Commands()
		subcommands := make([]string, 0, len(cmds))
		for _, sub := range cmds {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("set", "get", "list"))
	})
})

var _ = Describe("Config command execution", func() {
	var (
		tmpDir  string
		origDir string
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "sift-config-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		// Create a local .sift dir so the manager picks it up
		err = os.MkdirAll(filepath.Join(tmpDir, ".sift"), 0o755)
		Expect(err).NotTo(HaveOccurred())

		err = os.Chdir(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		err := os.Chdir(origDir)
		Expect(err).NotTo(HaveOccurred())
		os.RemoveAll(tmpDir)
	})

	Describe("set subcommand", func() {
		It("sets a config value successfully", func() {
			cmd := configcmder.NewConfigCmd()
			cmd.SetArgs([]string{"set", "vector_store.provider", "sqlite"})
			err := cmd.Execute()
			Expect(err).NotTo(HaveOccurred())

			// Verify the config file was created
			_, err = os.Stat(filepath.Join(tmpDir, ".sift", "config.toml"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects unknown keys", func() {
			cmd := configcmder.NewConfigCmd()
			cmd.SetArgs([]string{"set", "invalid_key", "value"})
			err := cmd.Execute()
			Expect(err).To(HaveOccurred())
		})

		It("requires exactly two arguments", func() {
			cmd := configcmder.NewConfigCmd()
			cmd.SetArgs([]string{"set", "vector_store.provider"})
			err := cmd.Execute()
			Expect(err).To(HaveOccurred())
		})

		It("rejects invalid uint values", func() {
			cmd := configcmder.NewConfigCmd()
			cmd.SetArgs([]string{"set", "embedding.dimensions", "not-a-number"})
			err := cmd.Execute()
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("get subcommand", func() {
		It("gets a previously set value", func() {
			setCmd := configcmder.NewConfigCmd()
			setCmd.SetArgs([]string{"set", "embedding.model", "text-embedding-3-small"})
			err := setCmd.Execute()
			Expect(err).NotTo(HaveOccurred())

			getCmd := configcmder.NewConfigCmd()
			getCmd.SetArgs([]string{"get", "embedding.model"})
			err = getCmd.Execute()
			Expect(err).NotTo(HaveOccurred())
		})

		It("runs without error for unset key", func() {
			getCmd := configcmder.NewConfigCmd()
			getCmd.SetArgs([]string{"get", "eventstream.topic"})
			err := getCmd.Execute()
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects unknown keys", func() {
			cmd := configcmder.NewConfigCmd()
			cmd.SetArgs([]string{"get", "invalid_key"})
			err := cmd.Execute()
			Expect(err).To(HaveOccurred())
		})

		It("requires exactly one argument", func() {
			cmd := configcmder.NewConfigCmd()
			cmd.SetArgs([]string{"get"})
			err := cmd.Execute()
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("list subcommand", func() {
		It("runs without error when no config exists", func() {
			cmd := configcmder.NewConfigCmd()
			cmd.SetArgs([]string{"list"})
			err := cmd.Execute()
			Expect(err).NotTo(HaveOccurred())
		})

		It("runs without error when config has values", func() {
			setCmd := configcmder.NewConfigCmd()
			setCmd.SetArgs([]string{"set", "vector_store.collection", "fraud-detection"})
			err := setCmd.Execute()
			Expect(err).NotTo(HaveOccurred())

			cmd := configcmder.NewConfigCmd()
			cmd.SetArgs([]string{"list"})
			err = cmd.Execute()
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects any arguments", func() {
			cmd := configcmder.NewConfigCmd()
			cmd.SetArgs([]string{"list", "extra"})
			err := cmd.Execute()
			Expect(err).To(HaveOccurred())
		})
	})
})
