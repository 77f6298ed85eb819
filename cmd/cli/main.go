// accesslens - Web Server Access Log Analyzer
//
// accesslens parses Common, Combined and Extended access logs and reports
// traffic analytics: top endpoints, error rates, trends and anomalies.
package main

import (
	"os"

	"github.com/ccollicutt/accesslens/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
