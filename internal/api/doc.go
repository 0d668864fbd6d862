// Package api 通过 HTTP 暴露插件清单、插件详情与命令调用接口，
// 调用结果沿用调度器统一的 Result 结构。
package api
