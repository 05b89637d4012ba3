// trashctl 回收站运维命令：迁移、统计、定期清理、按 id 恢复
package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	if err := rootCMD.Execute(); err != nil {
		os.Exit(1)
	}
}
