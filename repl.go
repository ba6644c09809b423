package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"agent-chat-client/chat"
	"agent-chat-client/db"
	"agent-chat-client/extract"
	"agent-chat-client/identity"
	"agent-chat-client/utils"
)

// repl drives the interactive terminal loop. Plain lines go into the
// composer and are sent; slash commands manage attachments, feedback,
// history and the signed-in user.
type repl struct {
	session   *chat.Session
	composer  *chat.Composer
	dictation *chat.DictationCapture
	auth      *identity.Service
	database  *db.DB
	out       *output
	logger    *utils.Logger

	reader  *bufio.Reader
	printed int
}

func newREPL(session *chat.Session, composer *chat.Composer, dictation *chat.DictationCapture,
	auth *identity.Service, database *db.DB, out *output, logger *utils.Logger) *repl {
	return &repl{
		session:   session,
		composer:  composer,
		dictation: dictation,
		auth:      auth,
		database:  database,
		out:       out,
		logger:    logger,
		reader:    bufio.NewReader(os.Stdin),
	}
}

// Run reads input until /quit or EOF
func (r *repl) Run(ctx context.Context) {
	defer utils.RecoverFromPanic(r.logger, "repl loop")

	r.out.Boldf("Agent Chat Client v%s", version)
	r.out.Dimf("Type /help for commands.")

	if err := r.ensureSignedIn(ctx); err != nil {
		r.out.Errorf("Sign-in failed: %v", err)
		return
	}
	if user := r.auth.CurrentUser(); user != nil {
		r.out.Dimf("Signed in as %s.", user.Username)
	}

	for {
		fmt.Print("> ")
		line, err := r.reader.ReadString('\n')
		if err != nil {
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if !r.handleCommand(ctx, line) {
				return
			}
			continue
		}

		r.sendLine(line)
	}
}

func (r *repl) sendLine(line string) {
	r.composer.SetDraft(line)
	if !r.composer.CanSend() {
		r.out.Errorf("Cannot send right now.")
		return
	}
	r.composer.Submit()
	r.reportAttachmentErrors()
	r.flushMessages()
}

// handleCommand returns false when the loop should exit
func (r *repl) handleCommand(ctx context.Context, line string) bool {
	command, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch command {
	case "/quit", "/exit":
		return false

	case "/help":
		r.printHelp()

	case "/attach":
		r.attach(arg)

	case "/attachments":
		r.listAttachments()

	case "/detach":
		if arg == "" {
			r.out.Errorf("Usage: /detach <name>")
			break
		}
		r.composer.RemoveAttachment(arg)

	case "/mic":
		r.dictation.Toggle()
		if !r.dictation.Supported() {
			r.out.Dimf("Dictation is not available in this terminal.")
		} else if r.dictation.Listening() {
			r.out.Dimf("Listening...")
		} else {
			r.out.Dimf("Stopped listening.")
		}

	case "/feedback":
		r.feedback(arg)

	case "/comment":
		r.comment(arg)

	case "/new":
		r.session.ResetConversation()
		r.printed = 0
		r.out.Dimf("Started a new conversation.")

	case "/history":
		r.history(arg)

	case "/search":
		r.search(arg)

	case "/forget":
		r.forget(arg)

	case "/stats":
		r.stats()

	case "/vacuum":
		r.vacuum()

	case "/whoami":
		if user := r.auth.CurrentUser(); user != nil {
			r.out.Boldf("%s (%s, via %s)", user.DisplayName, user.Username, user.Provider)
		} else {
			r.out.Dimf("Not signed in.")
		}

	case "/logout":
		r.auth.Logout(ctx)
		r.out.Dimf("Signed out.")
		if err := r.ensureSignedIn(ctx); err != nil {
			r.out.Errorf("Sign-in failed: %v", err)
			return false
		}

	default:
		r.out.Errorf("Unknown command %s. Type /help for commands.", command)
	}

	return true
}

func (r *repl) printHelp() {
	r.out.Dimf(`Commands:
  /attach <path>       attach a file to the next message
  /attachments         list pending attachments
  /detach <name>       remove an attachment
  /mic                 toggle dictation
  /feedback <n> up|down  rate an assistant reply
  /comment <n> <text>  attach a comment to a rated reply
  /new                 start a new conversation
  /history [n]         list archived conversations, or show one
  /search <query>      search archived messages
  /forget <n>          delete an archived conversation
  /stats               show archive statistics
  /vacuum              compact the archive file
  /whoami              show the signed-in user
  /logout              sign out and sign in again
  /quit                exit`)
}

func (r *repl) ensureSignedIn(ctx context.Context) error {
	if r.auth.CurrentUser() != nil {
		return nil
	}

	if r.auth.EnterpriseEnabled() {
		r.out.Dimf("Press enter to sign in with your work account, or type a username.")
	}

	fmt.Print("Username: ")
	line, err := r.reader.ReadString('\n')
	if err != nil {
		return err
	}
	username := strings.TrimSpace(line)

	if username == "" {
		if r.auth.EnterpriseEnabled() {
			_, err := r.auth.LoginEnterprise(ctx)
			return err
		}
		return fmt.Errorf("a username is required")
	}

	fmt.Print("Password: ")
	password, err := readSecret()
	if err != nil {
		return err
	}

	r.auth.Login(username, password)
	return nil
}

func readSecret() (string, error) {
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (r *repl) attach(path string) {
	if path == "" {
		r.out.Errorf("Usage: /attach <path>")
		return
	}

	file, err := extract.FromPath(path)
	if err != nil {
		r.out.Errorf("Failed to read %s: %v", path, err)
		return
	}

	r.composer.AddFiles(file)
	r.reportAttachmentErrors()

	for _, attachment := range r.composer.Attachments() {
		if attachment.Name == file.Name {
			r.out.Dimf("Attached %s (%d characters).", attachment.Name, len(attachment.Content))
		}
	}
}

func (r *repl) listAttachments() {
	attachments := r.composer.Attachments()
	if len(attachments) == 0 {
		r.out.Dimf("No attachments.")
		return
	}
	for _, attachment := range attachments {
		r.out.Dimf("  %s (%d characters)", attachment.Name, len(attachment.Content))
	}
}

func (r *repl) reportAttachmentErrors() {
	for _, attachErr := range r.composer.AttachmentErrors() {
		r.out.Errorf("%s: %s", attachErr.Name, attachErr.Message)
	}
}

func (r *repl) feedback(arg string) {
	fields := strings.Fields(arg)
	if len(fields) != 2 || (fields[1] != "up" && fields[1] != "down") {
		r.out.Errorf("Usage: /feedback <n> up|down")
		return
	}

	message, ok := r.messageByNumber(fields[0])
	if !ok {
		return
	}

	r.session.ToggleFeedback(message.ID, chat.Feedback(fields[1]))
	r.out.Dimf("Feedback recorded. Use /comment %s <text> to add a comment.", fields[0])
}

func (r *repl) comment(arg string) {
	number, text, _ := strings.Cut(arg, " ")
	text = strings.TrimSpace(text)
	if number == "" || text == "" {
		r.out.Errorf("Usage: /comment <n> <text>")
		return
	}

	message, ok := r.messageByNumber(number)
	if !ok {
		return
	}
	if message.Feedback != chat.FeedbackDown {
		r.out.Errorf("Comments go with down ratings. Use /feedback %s down first.", number)
		return
	}

	r.session.SetFeedbackDraft(message.ID, text)
	r.session.SubmitFeedback(message.ID)
	r.out.Dimf("Comment saved.")
}

// messageByNumber resolves a 1-based message number as printed in the
// transcript
func (r *repl) messageByNumber(raw string) (chat.Message, bool) {
	number, err := strconv.Atoi(raw)
	messages := r.session.Messages()
	if err != nil || number < 1 || number > len(messages) {
		r.out.Errorf("No message %s.", raw)
		return chat.Message{}, false
	}
	return messages[number-1], true
}

func (r *repl) history(arg string) {
	conversations, err := r.database.ListConversations(20, 0)
	if err != nil {
		r.out.Errorf("Failed to list conversations: %v", err)
		return
	}
	if len(conversations) == 0 {
		r.out.Dimf("No archived conversations.")
		return
	}

	if arg == "" {
		for i, conv := range conversations {
			r.out.Dimf("%2d. %s  (%s)", i+1, conv.Title, conv.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return
	}

	number, err := strconv.Atoi(arg)
	if err != nil || number < 1 || number > len(conversations) {
		r.out.Errorf("No conversation %s.", arg)
		return
	}

	conv := conversations[number-1]
	messages, err := r.database.ListMessages(conv.ID)
	if err != nil {
		r.out.Errorf("Failed to load conversation: %v", err)
		return
	}

	r.out.Boldf("%s", conv.Title)
	for _, message := range messages {
		if message.Role == string(chat.RoleUser) {
			r.out.Userf("You: %s", message.Content)
		} else {
			r.out.Markdown(message.Content)
		}
	}
}

func (r *repl) search(query string) {
	if query == "" {
		r.out.Errorf("Usage: /search <query>")
		return
	}

	results, err := r.database.SearchMessages(query, 10)
	if err != nil {
		r.out.Errorf("Search failed: %v", err)
		return
	}
	if len(results) == 0 {
		r.out.Dimf("No matches.")
		return
	}

	for _, result := range results {
		snippet := strings.NewReplacer("<mark>", "", "</mark>", "").Replace(result.Snippet)
		r.out.Dimf("  [%s] %s", result.Message.Role, snippet)
	}
}

// forget deletes an archived conversation by its /history number
func (r *repl) forget(arg string) {
	if arg == "" {
		r.out.Errorf("Usage: /forget <n> (see /history for numbers)")
		return
	}

	conversations, err := r.database.ListConversations(20, 0)
	if err != nil {
		r.out.Errorf("Failed to list conversations: %v", err)
		return
	}

	number, err := strconv.Atoi(arg)
	if err != nil || number < 1 || number > len(conversations) {
		r.out.Errorf("No conversation %s.", arg)
		return
	}

	conv := conversations[number-1]
	if err := r.database.DeleteConversation(conv.ID); err != nil {
		r.out.Errorf("Failed to delete conversation: %v", err)
		return
	}
	r.out.Dimf("Deleted %q from the archive.", conv.Title)
}

func (r *repl) vacuum() {
	if err := r.database.Vacuum(); err != nil {
		r.out.Errorf("Failed to compact the archive: %v", err)
		return
	}
	r.out.Dimf("Archive compacted.")
}

func (r *repl) stats() {
	stats, err := r.database.GetStats()
	if err != nil {
		r.out.Errorf("Failed to read statistics: %v", err)
		return
	}
	r.out.Dimf("%d conversations, %d messages, %.1f KB on disk.",
		stats.ConversationCount, stats.MessageCount, float64(stats.DBSizeBytes)/1024)
}

// flushMessages prints transcript entries added since the last flush
func (r *repl) flushMessages() {
	messages := r.session.Messages()
	for i := r.printed; i < len(messages); i++ {
		r.printMessage(i+1, messages[i])
	}
	r.printed = len(messages)
}

func (r *repl) printMessage(number int, message chat.Message) {
	switch {
	case message.Role == chat.RoleUser:
		r.out.Userf("[%d] You: %s", number, message.Content)
	case message.Error:
		r.out.Errorf("[%d] %s", number, message.Content)
	default:
		r.out.Dimf("[%d] Assistant:", number)
		r.out.Markdown(message.Content)
	}
}
