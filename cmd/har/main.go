// Copyright (c) 2019 strandlab
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"golang.org/x/exp/mmap"

	"github.com/strandlab/strand/utility/har"
)

func init() {
	u, err := user.Current()
	if err != nil {
		currentUserName = "unknown"
		return
	}
	currentUserName = u.Name
}

var (
	currentUserName string
	author          = flag.String("author", "", "Set the author of the archive when compressing, defaults to the current user")
	version         = flag.Int64("version", 1, "Archive version number to create it with")
	extract         = flag.String("e", "", "Extract the given archive into the working directory")
	compress        = flag.String("c", "", "Compress the given file/folder")
	dstFile         = flag.String("f", "out.har", "Destination file")
	silent          = flag.Bool("s", false, "Silent")
)

func main() {
	var opMade bool
	flag.Parse()

	if *extract != "" && *compress != "" {
		panic(errors.New("only one operation at a time"))
	}

	if *extract != "" {
		opMade = true
		if err := extractFiles(); err != nil {
			panic(err)
		}
	}

	if *compress != "" {
		opMade = true
		if err := compressFiles(); err != nil {
			panic(err)
		}
	}

	if !opMade {
		flag.PrintDefaults()
	}
}

func compressFiles() error {
	if _, err := os.Stat(*dstFile); err == nil {
		return errors.New("destination file exists, will not overwrite")
	}

	dst, err := os.Create(*dstFile)
	if err != nil {
		return err
	}
	defer dst.Close()

	var filesToCompress []string
	err = filepath.Walk(*compress, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		filesToCompress = append(filesToCompress, path)
		return nil
	})
	if err != nil {
		return err
	}

	archiveAuthor := *author
	if archiveAuthor == "" {
		archiveAuthor = currentUserName
	}

	builder, err := har.NewBuilder(har.Header{
		Author:      archiveAuthor,
		DateCreated: time.Now().Unix(),
		Version:     *version,
	})
	if err != nil {
		return err
	}

	for _, ftc := range filesToCompress {
		f, err := os.Open(ftc)
		if err != nil {
			return err
		}
		if err := builder.Add(filepath.ToSlash(ftc), f); err != nil {
			f.Close()
			return err
		}
		f.Close()

		if !*silent {
			fmt.Printf("added %s\n", ftc)
		}
	}

	if _, err := builder.WriteTo(dst); err != nil {
		return err
	}
	return nil
}

func extractFiles() error {
	reader, err := mmap.Open(*extract)
	if err != nil {
		return err
	}
	defer reader.Close()

	archive, err := har.Open(reader)
	if err != nil {
		return err
	}

	for _, entry := range archive.Header().Index {
		if err := extractEntry(archive, entry.Name); err != nil {
			return err
		}

		if !*silent {
			fmt.Printf("extracted %s\n", entry.Name)
		}
	}
	return nil
}

func extractEntry(archive *har.Archive, name string) error {
	src, err := archive.Open(name)
	if err != nil {
		return err
	}

	path := filepath.FromSlash(name)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return err
	}
	return nil
}
