package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/iWorld-y/market_intel/app/market_intel/pkg/config"
	"github.com/iWorld-y/market_intel/app/market_intel/pkg/engine"
	"github.com/iWorld-y/market_intel/app/market_intel/pkg/logger"
)

const defaultConfigPath = "configs/config.yaml"

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "market_intel",
		Short:         "市场情报助手：多源搜索 + LLM 趋势分析",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "配置文件路径")

	cmd.AddCommand(
		newQueryCmd(opts),
		newAskCmd(opts),
		newShowCmd(opts),
	)
	return cmd
}

// loadConfig 配置文件不存在时使用默认配置，凭证可由环境变量补齐
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("无法加载配置文件: %w", err)
		}
		cfg = config.Default()
	}
	cfg.ApplyEnv()

	if err := logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		return nil, fmt.Errorf("无法初始化日志: %w", err)
	}
	return cfg, nil
}

func newEngine(ctx context.Context, opts *rootOptions) (*engine.Engine, error) {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	return engine.NewEngine(ctx, cfg)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
