package main

import "github.com/vietddude/tradedesk/internal/cli"

func main() {
	cli.Execute()
}
