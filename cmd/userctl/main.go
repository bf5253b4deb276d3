package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/kdudkov/geogate/internal/clients"
)

var errMismatch = errors.New("password mismatch")

func readPassword(in io.Reader, out io.Writer) (string, error) {
	reader := bufio.NewReader(in)

	fmt.Fprint(out, "password: ")
	p1, _ := reader.ReadString('\n')
	fmt.Fprint(out, "repeat password: ")
	p2, _ := reader.ReadString('\n')

	if p1 != p2 {
		return "", errMismatch
	}

	return strings.TrimRight(p1, "\r\n"), nil
}

// run lists the clients when login is empty, otherwise adds or updates one.
func run(file, login, passwd string, in io.Reader, out io.Writer) error {
	list, err := clients.ReadFile(file)
	if err != nil {
		return err
	}

	if login == "" {
		for _, c := range list {
			fmt.Fprintln(out, c.Login)
		}

		return nil
	}

	if passwd == "" {
		if passwd, err = readPassword(in, out); err != nil {
			return err
		}
	}

	if list, err = clients.Upsert(list, login, passwd); err != nil {
		return err
	}

	return clients.WriteFile(file, list)
}

func main() {
	file := pflag.String("file", "clients.yml", "clients file")
	login := pflag.String("login", "", "client login")
	passwd := pflag.String("password", "", "password")

	pflag.Parse()

	if err := run(*file, *login, *passwd, os.Stdin, os.Stdout); err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
}
