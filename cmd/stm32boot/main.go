// stm32boot downloads firmware images to STM32 devices through the ROM
// bootloader UART protocol.
package main

import "github.com/moffa90/go-stm32boot/cmd/stm32boot/cmd"

func main() {
	cmd.Execute()
}
