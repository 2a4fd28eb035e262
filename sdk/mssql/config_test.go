package mssql

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	var dir string
	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "mssqlconv-config")
		Expect(err).ToNot(HaveOccurred())
	})
	AfterEach(func() {
		os.RemoveAll(dir)
	})

	writeConfig := func(content string) string {
		path := filepath.Join(dir, "config.yaml")
		Expect(os.WriteFile(path, []byte(content), 0o600)).To(Succeed())
		return path
	}

	Context("LoadConfig", func() {
		It("reads all keys", func() {
			path := writeConfig(`
driver: odbc
dsn: "Driver={ODBC Driver 18 for SQL Server};Server=localhost"
query_timeout: 30s
page_size: 50
log_level: debug
`)
			cfg, err := LoadConfig(path)
			Expect(err).ToNot(HaveOccurred())
			Expect(cfg.Driver).To(Equal(DriverODBC))
			Expect(cfg.DSN).To(ContainSubstring("Server=localhost"))
			Expect(cfg.QueryTimeout).To(Equal(30 * time.Second))
			Expect(cfg.PageSize).To(Equal(50))
			Expect(cfg.LogLevel).To(Equal("debug"))
		})

		It("applies defaults", func() {
			cfg, err := LoadConfig(writeConfig("dsn: sqlserver://sa@localhost\n"))
			Expect(err).ToNot(HaveOccurred())
			Expect(cfg.Driver).To(Equal(DriverSQLServer))
			Expect(cfg.PageSize).To(Equal(defaultPageSize))
			Expect(cfg.QueryTimeout).To(BeZero())
		})

		It("lets the environment override the file", func() {
			os.Setenv("MSSQLCONV_PAGE_SIZE", "7")
			defer os.Unsetenv("MSSQLCONV_PAGE_SIZE")

			cfg, err := LoadConfig(writeConfig("dsn: sqlserver://sa@localhost\npage_size: 50\n"))
			Expect(err).ToNot(HaveOccurred())
			Expect(cfg.PageSize).To(Equal(7))
		})

		It("returns error for a missing file", func() {
			_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
			Expect(err).To(HaveOccurred())
		})

		It("returns error for an invalid config", func() {
			_, err := LoadConfig(writeConfig("driver: postgres\ndsn: x\n"))
			Expect(err).To(MatchError(ContainSubstring("unsupported driver")))
		})
	})

	Context("Validate", func() {
		It("requires a dsn", func() {
			cfg := Config{}
			Expect(cfg.Validate()).To(MatchError(ContainSubstring("dsn is required")))
		})

		It("rejects a negative timeout", func() {
			cfg := Config{DSN: "x", QueryTimeout: -time.Second}
			Expect(cfg.Validate()).To(HaveOccurred())
		})

		It("rejects an unknown log level", func() {
			cfg := Config{DSN: "x", LogLevel: "verbose"}
			Expect(cfg.Validate()).To(HaveOccurred())
		})

		It("fills in defaults", func() {
			cfg := Config{DSN: "x"}
			Expect(cfg.Validate()).To(Succeed())
			Expect(cfg.Driver).To(Equal(DriverSQLServer))
			Expect(cfg.PageSize).To(Equal(defaultPageSize))
		})
	})
})
