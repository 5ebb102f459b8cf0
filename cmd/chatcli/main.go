package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/saathichat/saathi-backend/internal/clientstore"
	"github.com/saathichat/saathi-backend/internal/logger"
	"github.com/saathichat/saathi-backend/internal/utils"
)

// chatcli is a terminal client for manual testing against a running backend.
func main() {
	log, err := logger.New("development")
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	baseURL := utils.GetEnv("CHAT_BASE_URL", "http://localhost:8080", log)
	phone := utils.GetEnv("CHAT_PHONE", "+919999999999", log)
	personaID := utils.GetEnv("CHAT_PERSONA_ID", "riya", log)
	appKey := os.Getenv("CHAT_APP_KEY")

	ctx := context.Background()
	tokens := clientstore.NewMemoryTokenStorage(appKey)
	api := clientstore.NewClient(log, baseURL, tokens, "cli-device")

	if appKey == "" {
		if err := api.Register(ctx, phone); err != nil {
			log.Error("Registration failed", "error", err)
			os.Exit(1)
		}
		log.Info("Registered", "phone", phone)
	}

	store := clientstore.NewStore(log, api, clientstore.DefaultConfig())
	store.StartChat(personaID)
	if err := store.LoadFromServer(ctx, personaID); err != nil {
		log.Warn("Could not load history", "error", err)
	}
	render(store.Chat(personaID))

	fmt.Println("Type a message and press enter. Commands: /older, /reload, /quit")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit":
			return
		case line == "/reload":
			if err := store.LoadFromServer(ctx, personaID); err != nil {
				log.Warn("Reload failed", "error", err)
			}
			render(store.Chat(personaID))
		case line == "/older":
			n, err := store.LoadOlder(ctx, personaID)
			if err != nil {
				log.Warn("Could not load older messages", "error", err)
				continue
			}
			fmt.Printf("-- loaded %d older messages --\n", n)
			render(store.Chat(personaID))
		default:
			if err := store.SendUserMessage(ctx, personaID, line); err != nil {
				log.Warn("Send failed", "error", err)
			}
			render(store.Chat(personaID))
		}
	}
}

func render(chat *clientstore.Chat) {
	if chat == nil {
		return
	}
	fmt.Println(strings.Repeat("-", 40))
	for _, b := range chat.Bubbles {
		marker := ""
		if b.Local {
			marker = " *"
		}
		fmt.Printf("[%s]%s %s\n", b.Role, marker, b.Text)
	}
	fmt.Println(strings.Repeat("-", 40))
}
