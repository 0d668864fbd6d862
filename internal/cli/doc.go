// Package cli 提供 airchitect 命令行入口，负责装配插件宿主并暴露子命令。
package cli
