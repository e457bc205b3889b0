// Package shell puts the toolchain bin directory on the user's PATH.
//
// The shell is detected from $SHELL and mapped to its rc file:
//   - bash: ~/.bashrc
//   - zsh: ~/.zshrc
//   - fish: ~/.config/fish/config.fish
//   - anything else: ~/.profile
//
// Registration is idempotent: an rc file that already mentions the
// directory is left alone. Otherwise one PATH line is appended through a
// temporary file and a rename, so a failed write never truncates the rc
// file.
//
//	r := shell.NewRegistrar(home, logger)
//	if err := r.Register(filepath.Join(moonHome, "bin")); err != nil {
//	    // tell the user to edit PATH manually
//	}
//
// Windows keeps PATH in the registry rather than in rc files and is not
// handled here.
package shell
