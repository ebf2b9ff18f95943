package main

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/John-Robertt/free-servers/internal/config"
	"github.com/John-Robertt/free-servers/internal/fetch"
	"github.com/John-Robertt/free-servers/internal/link"
	"github.com/John-Robertt/free-servers/internal/logger"
	"github.com/John-Robertt/free-servers/internal/model"
	"github.com/John-Robertt/free-servers/internal/node"
	"github.com/John-Robertt/free-servers/internal/pipeline"
	"github.com/John-Robertt/free-servers/internal/template"
)

func newRootCmd() *cobra.Command {
	v := config.NewViper()
	var configFile string

	update := func(cmd *cobra.Command, args []string) error {
		return runUpdate(cmd, v, configFile)
	}

	root := &cobra.Command{
		Use:           "free-servers",
		Short:         "Publish sampled proxy nodes from Cloudflare KV into README.md",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          update,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "可选的 YAML 配置文件")

	bindFlags(v, root.PersistentFlags())

	root.AddCommand(&cobra.Command{
		Use:   "update",
		Short: "Fetch nodes from KV and rewrite the output file",
		Args:  cobra.NoArgs,
		RunE:  update,
	})
	root.AddCommand(newEncodeCmd())
	return root
}

// bindFlags registers the update flags and binds them to their config keys.
// Unset flags fall back to the environment, the config file and the defaults.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.StringP("output", "o", config.DefaultOutputPath, "输出文件路径（每次运行完整覆盖）")
	flags.String("html", "", "额外输出 HTML 页面的路径（为空则不输出）")
	flags.IntP("count", "n", config.DefaultSampleCount, "随机选取的节点数量")
	flags.String("log-level", "info", "日志级别：debug, info, warn, error")
	for key, name := range map[string]string{
		"output.path":  "output",
		"output.html":  "html",
		"sample.count": "count",
		"logger.level": "log-level",
	} {
		// BindPFlag only fails for a nil flag.
		_ = v.BindPFlag(key, flags.Lookup(name))
	}
}

func runUpdate(cmd *cobra.Command, v *viper.Viper, configFile string) error {
	cfg, err := config.Load(v, configFile)
	if err != nil {
		return err
	}

	log, closer, err := logger.New(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		OutputPath: cfg.Logger.OutputPath,
	})
	if err != nil {
		return err
	}
	defer closer.Close()

	_, err = pipeline.Run(cmd.Context(), cfg, pipeline.Deps{Logger: log})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pipeline.ErrConfigMissing), errors.Is(err, pipeline.ErrNoNodes):
		// Graceful exits, already reported.
		return nil
	}

	logError(log, "更新失败", err)
	return &loggedError{err: err}
}

func appErrorOf(err error) (model.AppError, bool) {
	var (
		fe *fetch.FetchError
		pe *node.ParseError
		te *template.TemplateError
		ce *config.ConfigError
	)
	switch {
	case errors.As(err, &fe):
		return fe.AppError, true
	case errors.As(err, &pe):
		return pe.AppError, true
	case errors.As(err, &te):
		return te.AppError, true
	case errors.As(err, &ce):
		return ce.AppError, true
	}
	return model.AppError{}, false
}

func newEncodeCmd() *cobra.Command {
	var asBase64 bool
	cmd := &cobra.Command{
		Use:   "encode [file]",
		Short: "Print subscription links for every supported node in a proxies YAML file",
		Long: "Reads a Clash-style YAML document with a top-level `proxies` list from the\n" +
			"given file (or stdin when omitted or \"-\") and prints one link per line.\n" +
			"Nodes of unsupported types are skipped.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := "-"
			if len(args) == 1 {
				source = args[0]
			}
			content, err := readSource(cmd.InOrStdin(), source)
			if err != nil {
				return err
			}
			out, err := encodeList(source, content, asBase64)
			if errors.Is(err, pipeline.ErrNoNodes) {
				logger.NewWriter(cmd.ErrOrStderr(), "console", slog.LevelWarn).Warn("没有可用节点")
				return nil
			}
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().BoolVar(&asBase64, "base64", false, "以 base64 编码整个订阅内容输出")
	return cmd
}

func readSource(stdin io.Reader, source string) (string, error) {
	var (
		b   []byte
		err error
	)
	if source == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(source)
	}
	if err != nil {
		return "", fmt.Errorf("读取节点文件失败: %w", err)
	}
	return string(b), nil
}

// encodeList renders one link per line, ending with a newline, or the base64
// of that text when asBase64 is set.
func encodeList(source, content string, asBase64 bool) (string, error) {
	records, err := node.ParseProxies(source, content)
	if err != nil {
		return "", err
	}
	lines := make([]string, 0, len(records))
	for _, r := range records {
		if l := link.EncodeRecord(r); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return "", pipeline.ErrNoNodes
	}
	raw := strings.Join(lines, "\n") + "\n"
	if asBase64 {
		return base64.StdEncoding.EncodeToString([]byte(raw)) + "\n", nil
	}
	return raw, nil
}
