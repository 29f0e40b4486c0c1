/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"html"
	"log"
	"strings"
	"time"
)

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	log.Printf("%s | "+format, append([]any{time.Now().Format(logDate)}, args...)...)
}

func errorf(format string, args ...any) {
	log.Printf("%s | ERROR: "+format, append([]any{time.Now().Format(logDate)}, args...)...)
}

// loggers binds logf and errorf to cfg, prefixing each line with tag.
func loggers(cfg *Config, tag string) (func(string, ...any), func(string, ...any)) {
	info := func(format string, args ...any) {
		logf(cfg, tag+format, args...)
	}
	fail := func(format string, args ...any) {
		errorf(tag+format, args...)
	}

	return info, fail
}

func newPage(prefix, title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(getFavicon(prefix))
	htmlBody.WriteString(`<style>`)
	htmlBody.WriteString(`html,body,a{display:block;height:100%;width:100%;text-decoration:none;color:inherit;cursor:auto;}</style>`)
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", html.EscapeString(title)))
	htmlBody.WriteString(fmt.Sprintf("<body><a href=\"%s/\">%s</a></body></html>", prefix, html.EscapeString(body)))

	return htmlBody.String()
}
