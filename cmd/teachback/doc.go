// Package main hosts the teachback CLI entrypoint and command graph.
//
// The Cobra-based command tree exposes the teach-back flow (generate, quiz,
// save/load), the glossary, the chat helper, live voice Q&A, speech tools and
// configuration scaffolding. "teachback app" runs the interactive shell with
// the three tabs and the guided tour. Configuration resolution, store access,
// backend construction and logging setup are centralized in commandContext so
// subcommands can focus on the user experience.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
