// Package ui renders the boxed output of the non-interactive wifistat
// commands: a header naming the command and its parameters, and a result
// box with details or troubleshooting tips.
//
// Components render to strings; the commands print them. Logging is
// controlled by WIFISTAT_LOG_LEVEL and is silent by default so the boxes
// are the only output.
package ui
