package main

import "github.com/cogwatch/cogwatch/cmd/cogctl/arg"

func main() {
	arg.Execute()
}
