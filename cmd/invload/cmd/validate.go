package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"inventory-loader/internal/config"
)

// validateCmd represents the validate command.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "验证配置文件",
	Long:  "加载 .env 与配置文件并验证，检查格式、必填字段、写入模式和时区等约束。",
	Run:   runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// runValidate executes the validate command logic.
func runValidate(cmd *cobra.Command, args []string) {
	if err := config.LoadDotEnv(envFile); err != nil {
		fmt.Fprintf(os.Stderr, "❌ 加载环境变量文件失败: %v\n", err)
		os.Exit(1)
	}

	configPath := GetConfigFile()

	// Load internally calls Validate
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ 配置验证失败: %v\n", err)
		os.Exit(1)
	}

	if configPath == "" {
		configPath = "(默认值 + 环境变量)"
	}
	fmt.Printf("✅ 配置验证通过: %s\n", configPath)
	fmt.Printf("   写入模式: %s\n", cfg.Sink.Mode)
	fmt.Printf("   数据源: %s\n", cfg.Source.Location)
}
