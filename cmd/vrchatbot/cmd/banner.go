package cmd

import (
	"fmt"
	"io"
)

const banner = `
                 _           _   _           _   
 __   ___ __ ___| |__   __ _| |_| |__   ___ | |_ 
 \ \ / / '__/ __| '_ \ / _` + "`" + ` | __| '_ \ / _ \| __|
  \ V /| | | (__| | | | (_| | |_| |_) | (_) | |_ 
   \_/ |_|  \___|_| |_|\__,_|\__|_.__/ \___/ \__|
`

func printBanner(w io.Writer) {
	fmt.Fprintf(w, "\x1b[34m%s\x1b[0m", banner)
	fmt.Fprintf(w, "\x1b[32m  VRChat chat bot - Version %s\x1b[0m\n\n", Version)
}
