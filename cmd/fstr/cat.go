package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.bytecodealliance.org/wit"
	"golang.org/x/term"

	"github.com/wippyai/flashstring"
	"github.com/wippyai/flashstring/errors"
)

// elementTypes are the WIT types an entry can be printed as.
var elementTypes = []wit.Type{
	wit.U8{}, wit.S8{},
	wit.U16{}, wit.S16{},
	wit.U32{}, wit.S32{},
	wit.U64{}, wit.S64{},
	wit.F32{}, wit.F64{},
	wit.Char{}, wit.String{},
}

func newCatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cat image name",
		Short: "Print an entry",
		Long: "Print an entry. Without --type the raw bytes are written as is; with --type\n" +
			"the entry is read as an array of that element type.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			typeStr, _ := cmd.Flags().GetString("type")
			flash, _ := cmd.Flags().GetBool("flash")
			dump, _ := cmd.Flags().GetBool("hex")

			img, closeImg, err := openImage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer closeImg()

			h, ok := img.Lookup(args[1])
			if !ok {
				return errors.NotFound(errors.PhaseParse, "entry", args[1])
			}
			w := cmd.OutOrStdout()

			if dump {
				return dumpHex(w, h, flash)
			}
			if typeStr == "" {
				_, err := flashstring.NewReader(h, flash).WriteTo(w)
				return err
			}
			t, err := parseElementType(typeStr)
			if err != nil {
				return err
			}
			return printTyped(w, h, t, flash, terminalWidth())
		},
	}
	cmd.Flags().StringP("type", "t", "", "element type: "+strings.Join(elementTypeNames(), ", "))
	cmd.Flags().Bool("flash", false, "read through the uncached backend")
	cmd.Flags().Bool("hex", false, "print a hex dump")
	return cmd
}

// dumpHex writes a hex dump of h. The dumper buffers the last partial line
// until it is closed.
func dumpHex(w io.Writer, h *flashstring.Handle, flash bool) error {
	d := hex.Dumper(w)
	_, err := flashstring.NewReader(h, flash).WriteTo(d)
	if cerr := d.Close(); err == nil {
		err = cerr
	}
	return err
}

func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 80
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

func parseElementType(s string) (wit.Type, error) {
	for _, t := range elementTypes {
		if typeName(t) == s {
			return t, nil
		}
	}
	return nil, errors.InvalidInput(errors.PhaseParse,
		fmt.Sprintf("unknown element type %q (want one of %s)", s, strings.Join(elementTypeNames(), ", ")))
}

func elementTypeNames() []string {
	names := make([]string, len(elementTypes))
	for i, t := range elementTypes {
		names[i] = typeName(t)
	}
	return names
}

func typeName(t wit.Type) string {
	switch t.(type) {
	case wit.U8:
		return "u8"
	case wit.S8:
		return "s8"
	case wit.U16:
		return "u16"
	case wit.S16:
		return "s16"
	case wit.U32:
		return "u32"
	case wit.S32:
		return "s32"
	case wit.U64:
		return "u64"
	case wit.S64:
		return "s64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.Char:
		return "char"
	case wit.String:
		return "string"
	default:
		return fmt.Sprintf("%T", t)
	}
}

func printTyped(w io.Writer, h *flashstring.Handle, t wit.Type, flash bool, width int) error {
	switch t.(type) {
	case wit.U8:
		return printArray[uint8](w, h, flash, width, "%d")
	case wit.S8:
		return printArray[int8](w, h, flash, width, "%d")
	case wit.U16:
		return printArray[uint16](w, h, flash, width, "%d")
	case wit.S16:
		return printArray[int16](w, h, flash, width, "%d")
	case wit.U32:
		return printArray[uint32](w, h, flash, width, "%d")
	case wit.S32:
		return printArray[int32](w, h, flash, width, "%d")
	case wit.U64:
		return printArray[uint64](w, h, flash, width, "%d")
	case wit.S64:
		return printArray[int64](w, h, flash, width, "%d")
	case wit.F32:
		return printArray[float32](w, h, flash, width, "%g")
	case wit.F64:
		return printArray[float64](w, h, flash, width, "%g")
	case wit.Char:
		return printArray[rune](w, h, flash, width, "%q")
	case wit.String:
		_, err := fmt.Fprintf(w, "%q\n", h.String())
		return err
	default:
		return errors.Unsupported(errors.PhaseRead, "element type "+typeName(t))
	}
}

// printArray prints the elements of h as a table that fits width columns.
func printArray[T flashstring.Element](w io.Writer, h *flashstring.Handle, flash bool, width int, verb string) error {
	arr := flashstring.NewArray[T](h)
	read := arr.Read
	if flash {
		read = arr.ReadFlash
	}

	cells := make([]string, 0, arr.Len())
	cellWidth := 1
	buf := make([]T, 64)
	for i := 0; i < arr.Len(); {
		n := read(i, buf)
		if n == 0 {
			break
		}
		for _, v := range buf[:n] {
			s := fmt.Sprintf(verb, v)
			cellWidth = max(cellWidth, len(s))
			cells = append(cells, s)
		}
		i += n
	}

	perLine := max(1, width/(cellWidth+1))
	var line strings.Builder
	for i, s := range cells {
		if i%perLine != 0 {
			line.WriteByte(' ')
		}
		fmt.Fprintf(&line, "%*s", cellWidth, s)
		if i%perLine == perLine-1 || i == len(cells)-1 {
			line.WriteByte('\n')
			if _, err := io.WriteString(w, line.String()); err != nil {
				return err
			}
			line.Reset()
		}
	}
	return nil
}
