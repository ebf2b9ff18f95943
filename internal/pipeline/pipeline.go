// Package pipeline runs one update: fetch the node list from KV, sample it,
// encode the sampled nodes and rewrite the README.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/John-Robertt/free-servers/internal/config"
	"github.com/John-Robertt/free-servers/internal/fetch"
	"github.com/John-Robertt/free-servers/internal/link"
	"github.com/John-Robertt/free-servers/internal/node"
	"github.com/John-Robertt/free-servers/internal/sample"
	"github.com/John-Robertt/free-servers/internal/template"
)

var (
	// ErrConfigMissing wraps the *config.ConfigError of a run that stopped
	// before any network call.
	ErrConfigMissing = errors.New("cloudflare configuration missing")
	// ErrNoNodes is returned when KV holds zero proxies; nothing is written.
	ErrNoNodes = errors.New("no available nodes")
)

// FetchFunc returns the raw YAML stored in KV.
type FetchFunc func(ctx context.Context, req fetch.KVRequest, opt fetch.Options) (string, error)

type Deps struct {
	Fetch  FetchFunc
	Now    func() time.Time
	Rand   *rand.Rand
	Logger *slog.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Fetch == nil {
		d.Fetch = fetch.FetchKVValue
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Rand == nil {
		d.Rand = sample.NewRand()
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return d
}

type Result struct {
	Total      int
	Selected   int
	Links      []string
	Skipped    int
	OutputPath string
	HTMLPath   string
}

// Run executes one update. ErrConfigMissing and ErrNoNodes are graceful exits:
// they are already logged and nothing has been written.
func Run(ctx context.Context, cfg *config.Config, deps Deps) (*Result, error) {
	deps = deps.withDefaults()
	log := deps.Logger

	if err := cfg.Validate(); err != nil {
		if config.IsMissing(err) {
			var ce *config.ConfigError
			_ = errors.As(err, &ce)
			log.Error("错误：缺少 Cloudflare 配置环境变量", "missing", ce.Missing)
			return nil, fmt.Errorf("%w: %w", ErrConfigMissing, err)
		}
		return nil, err
	}

	log.Info("正在从 Cloudflare KV 获取数据...")
	req := fetch.KVRequest{
		APIBase:     cfg.Cloudflare.APIBase,
		AccountID:   cfg.Cloudflare.AccountID,
		NamespaceID: cfg.Cloudflare.NamespaceID,
		Key:         cfg.Cloudflare.KVKey,
		Token:       cfg.Cloudflare.APIToken,
	}
	raw, err := deps.Fetch(ctx, req, fetch.Options{
		Timeout:  cfg.Fetch.Timeout,
		MaxBytes: cfg.Fetch.MaxBytes,
	})
	if err != nil {
		return nil, err
	}

	log.Info("正在解析节点...")
	records, err := node.ParseProxies("kv://"+cfg.Cloudflare.KVKey, raw)
	if err != nil {
		return nil, err
	}
	log.Info(fmt.Sprintf("共获取到 %d 个节点", len(records)), "count", len(records))

	if len(records) == 0 {
		log.Warn("没有可用节点")
		return nil, ErrNoNodes
	}

	selected := sample.Pick(deps.Rand, records, cfg.Sample.Count)
	res := &Result{
		Total:    len(records),
		Selected: len(selected),
		Links:    make([]string, 0, len(selected)),
	}
	for _, r := range selected {
		n := node.Classify(r)
		l := link.Encode(n)
		if l == "" {
			res.Skipped++
			log.Debug("跳过不支持的节点类型", "type", n.Type(), "name", r.Name.Or(""))
			continue
		}
		res.Links = append(res.Links, l)
	}

	readme, err := template.RenderReadme(template.Page{
		UpdateTime:      template.BeijingTime(deps.Now()),
		Links:           res.Links,
		SubscriptionURL: cfg.Output.SubscriptionURL,
	})
	if err != nil {
		return nil, err
	}

	// Render everything before touching disk.
	var page string
	if cfg.Output.HTML != "" {
		page, err = template.RenderHTML(readme, "Free-servers")
		if err != nil {
			return nil, err
		}
	}

	var g errgroup.Group
	g.Go(func() error { return template.WriteFile(cfg.Output.Path, readme) })
	if cfg.Output.HTML != "" {
		g.Go(func() error { return template.WriteFile(cfg.Output.HTML, page) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	res.OutputPath = cfg.Output.Path
	res.HTMLPath = cfg.Output.HTML

	log.Info(fmt.Sprintf("%s 已更新，包含 %d 个节点", filepath.Base(cfg.Output.Path), res.Selected),
		"selected", res.Selected, "skipped", res.Skipped)
	return res, nil
}
