// Package plugins 汇总随主程序一起发布的内置插件。
package plugins
